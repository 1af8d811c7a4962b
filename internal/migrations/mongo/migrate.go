package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vetslots/internal/migrations/mongo/validators"
	"vetslots/pkg/logger"
)

const (
	SlotTemplatesCollection     = "SlotTemplates"
	UnavailabilityCollection    = "Unavailability"
	AppointmentsCollection      = "Appointments"
	AppointmentTokensCollection = "AppointmentTokens"
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	SlotTemplatesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "weekday", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("doctor_weekday_unique"),
		},
	}

	UnavailabilityIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "doctor_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "weekday", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("doctor_date_weekday_unique"),
		},
	}

	// The partial unique index is what keeps two live appointments off one slot.
	// Cancelled rows carry is_canceled=1 and drop out of it.
	AppointmentsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "doctor_id", Value: 1},
				{Key: "appointment_date", Value: 1},
				{Key: "appointment_time24", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("live_slot_unique").
				SetPartialFilterExpression(bson.M{"is_canceled": 0}),
		},
		{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "appointment_date", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "appointment_date", Value: -1}}},
		{Keys: bson.D{{Key: "hospital_id", Value: 1}, {Key: "appointment_date", Value: -1}}},
	}

	AppointmentTokensIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expire_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expire_at_ttl"),
		},
	}
)

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		SlotTemplatesCollection: {
			Indexes:   SlotTemplatesIndexes,
			Validator: validators.SlotTemplateValidator,
		},
		UnavailabilityCollection: {
			Indexes:   UnavailabilityIndexes,
			Validator: validators.UnavailabilityValidator,
		},
		AppointmentsCollection: {
			Indexes:   AppointmentsIndexes,
			Validator: validators.AppointmentValidator,
		},
		AppointmentTokensCollection: {
			Indexes:   AppointmentTokensIndexes,
			Validator: validators.AppointmentTokenValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
