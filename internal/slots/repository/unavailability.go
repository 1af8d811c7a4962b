package repository

import (
	"context"
	"errors"
	"fmt"

	slotserrors "vetslots/internal/slots/errors"
	"vetslots/pkg/calendar"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	"vetslots/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UnavailabilityCollection = "Unavailability"
)

type UnavailabilityRepository interface {
	Find(ctx context.Context, doctorID, date string, weekday calendar.Weekday) (*model.Unavailability, error)
	FindInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Unavailability, error)
	Upsert(ctx context.Context, override *model.Unavailability) error
}

type mongoUnavailabilityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUnavailabilityRepository(cfg *config.Config) UnavailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUnavailabilityRepository{
		cfg:        cfg,
		collection: db.Collection(UnavailabilityCollection),
	}
}

func (r *mongoUnavailabilityRepository) Find(ctx context.Context, doctorID, date string, weekday calendar.Weekday) (*model.Unavailability, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"doctor_id": doctorID, "date": date, "weekday": weekday}

	var override model.Unavailability
	if err := r.collection.FindOne(ctx, filter).Decode(&override); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrUnavailabilityNotFound
		}
		return nil, fmt.Errorf("failed to find unavailability: %w", err)
	}
	return &override, nil
}

// FindInRange returns the overrides with fromDate <= date <= toDate. Dates
// are fixed-width YYYY-MM-DD strings, so lexical order is calendar order.
func (r *mongoUnavailabilityRepository) FindInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Unavailability, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"date":      bson.M{"$gte": fromDate, "$lte": toDate},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find unavailability: %w", err)
	}
	defer cursor.Close(ctx)

	var overrides []*model.Unavailability
	if err = cursor.All(ctx, &overrides); err != nil {
		return nil, fmt.Errorf("failed to decode unavailability: %w", err)
	}
	return overrides, nil
}

func (r *mongoUnavailabilityRepository) Upsert(ctx context.Context, override *model.Unavailability) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id": override.DoctorID,
		"date":      override.Date,
		"weekday":   override.Weekday,
	}
	update := bson.M{"$set": bson.M{
		"blocked_slots": override.BlockedSlots,
		"updated_at":    override.UpdatedAt,
	}}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert unavailability: %w", err)
	}
	return nil
}
