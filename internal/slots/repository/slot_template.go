package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	SlotTemplatesCollection = "SlotTemplates"
)

type SlotTemplateRepository interface {
	FindByDoctorAndWeekday(ctx context.Context, doctorID string, weekday calendar.Weekday) (*model.SlotTemplate, error)
	FindByDoctor(ctx context.Context, doctorID string) ([]*model.SlotTemplate, error)
	Upsert(ctx context.Context, template *model.SlotTemplate) error
	UpdateDuration(ctx context.Context, doctorID string, weekday calendar.Weekday, durationMin int, updatedAt time.Time) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSlotTemplateRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSlotTemplateRepository(cfg *config.Config) SlotTemplateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotTemplateRepository{
		cfg:        cfg,
		collection: db.Collection(SlotTemplatesCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoSlotTemplateRepository) FindByDoctorAndWeekday(ctx context.Context, doctorID string, weekday calendar.Weekday) (*model.SlotTemplate, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"doctor_id": doctorID, "weekday": weekday}

	var template model.SlotTemplate
	if err := r.collection.FindOne(ctx, filter).Decode(&template); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find slot template: %w", err)
	}
	return &template, nil
}

func (r *mongoSlotTemplateRepository) FindByDoctor(ctx context.Context, doctorID string) ([]*model.SlotTemplate, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"doctor_id": doctorID})
	if err != nil {
		return nil, fmt.Errorf("failed to find slot templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*model.SlotTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode slot templates: %w", err)
	}
	return templates, nil
}

// Upsert replaces the slots and duration of the (doctor, weekday) template,
// creating it on first save. The unique index on (doctor_id, weekday) keeps
// concurrent first saves from producing two documents.
func (r *mongoSlotTemplateRepository) Upsert(ctx context.Context, template *model.SlotTemplate) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"doctor_id": template.DoctorID, "weekday": template.Weekday}
	update := bson.M{
		"$set": bson.M{
			"slots":                     template.Slots,
			"consultation_duration_min": template.ConsultationDurationMin,
			"updated_at":                template.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"created_at": template.UpdatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved model.SlotTemplate
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return fmt.Errorf("failed to upsert slot template: %w", err)
	}
	*template = saved
	return nil
}

func (r *mongoSlotTemplateRepository) UpdateDuration(ctx context.Context, doctorID string, weekday calendar.Weekday, durationMin int, updatedAt time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"doctor_id": doctorID, "weekday": weekday}
	update := bson.M{"$set": bson.M{
		"consultation_duration_min": durationMin,
		"updated_at":                updatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update consultation duration: %w", err)
	}
	if result.MatchedCount == 0 {
		return slotserrors.ErrTemplateNotFound
	}
	return nil
}

func (r *mongoSlotTemplateRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
