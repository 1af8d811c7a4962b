package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "vetslots/internal/appointments/errors"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	"vetslots/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AppointmentsCollection = "Appointments"

	// ExpiredReason is stored on pending appointments cancelled by the sweep.
	ExpiredReason = "Not accepted before the appointment time"
)

type AppointmentRepository interface {
	FindActiveByDoctorAndDate(ctx context.Context, doctorID, date string) ([]*model.Appointment, error)
	FindActiveByDoctorInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error)
	FindActiveAtSlot(ctx context.Context, doctorID, date, time24 string) (*model.Appointment, error)
	Insert(ctx context.Context, appt *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	Cancel(ctx context.Context, id, reason string, now time.Time) (*model.Appointment, error)
	Reschedule(ctx context.Context, id string, change *model.AppointmentReschedule, now time.Time) (*model.Appointment, error)
	ExpirePending(ctx context.Context, id string, now time.Time) (bool, error)
	ListByParticipant(ctx context.Context, role model.ListRole, participantID string, limit int) ([]*model.Appointment, error)
	CountByParticipant(ctx context.Context, role model.ListRole, participantID string) (int64, error)
	ListPendingThrough(ctx context.Context, role model.ListRole, participantID, date string, limit int) ([]*model.Appointment, error)
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(AppointmentsCollection),
	}
}

func (r *mongoAppointmentRepository) FindActiveByDoctorAndDate(ctx context.Context, doctorID, date string) ([]*model.Appointment, error) {
	filter := bson.M{
		"doctor_id":        doctorID,
		"appointment_date": date,
		"is_canceled":      0,
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "appointment_time24", Value: 1}}))
}

func (r *mongoAppointmentRepository) FindActiveByDoctorInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error) {
	filter := bson.M{
		"doctor_id":        doctorID,
		"appointment_date": bson.M{"$gte": fromDate, "$lte": toDate},
		"is_canceled":      0,
	}
	return r.find(ctx, filter, options.Find())
}

func (r *mongoAppointmentRepository) FindActiveAtSlot(ctx context.Context, doctorID, date, time24 string) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"doctor_id":          doctorID,
		"appointment_date":   date,
		"appointment_time24": time24,
		"is_canceled":        0,
	}

	var appt model.Appointment
	if err := r.collection.FindOne(ctx, filter).Decode(&appt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	return &appt, nil
}

func (r *mongoAppointmentRepository) Insert(ctx context.Context, appt *model.Appointment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	appt.ID = ""
	result, err := r.collection.InsertOne(ctx, appt)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appointmentserrors.ErrSlotTaken
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appt.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var appt model.Appointment
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return &appt, nil
}

// Cancel only matches a live appointment, so of two concurrent cancels one
// gets ErrAlreadyCancelled.
func (r *mongoAppointmentRepository) Cancel(ctx context.Context, id, reason string, now time.Time) (*model.Appointment, error) {
	update := bson.M{"$set": bson.M{
		"status":        model.StatusCancelled,
		"is_canceled":   1,
		"cancel_reason": reason,
		"updated_at":    now,
	}}
	return r.findOneAndUpdate(ctx, id, bson.M{"is_canceled": 0}, update, appointmentserrors.ErrAlreadyCancelled)
}

// Reschedule moves the appointment to a new slot and puts it back to pending.
// A collision with another live appointment surfaces as ErrSlotTaken.
func (r *mongoAppointmentRepository) Reschedule(ctx context.Context, id string, change *model.AppointmentReschedule, now time.Time) (*model.Appointment, error) {
	set := bson.M{
		"appointment_date":   change.Date,
		"appointment_time":   change.Time,
		"appointment_time24": change.Time24,
		"day":                change.Day,
		"slots_id":           change.SlotsID,
		"status":             model.StatusPending,
		"is_canceled":        0,
		"updated_at":         now,
	}
	if change.Department != "" {
		set["department"] = change.Department
	}
	if change.UploadRecords != nil {
		set["upload_records"] = change.UploadRecords
	}
	update := bson.M{
		"$set":   set,
		"$unset": bson.M{"cancel_reason": ""},
	}
	return r.findOneAndUpdate(ctx, id, nil, update, appointmentserrors.ErrNotFound)
}

// ExpirePending cancels the appointment only while it is still pending, so
// running it twice changes nothing the second time.
func (r *mongoAppointmentRepository) ExpirePending(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return false, err
	}

	filter := bson.M{"_id": objectID, "status": model.StatusPending}
	update := bson.M{"$set": bson.M{
		"status":        model.StatusCancelled,
		"is_canceled":   1,
		"cancel_reason": ExpiredReason,
		"updated_at":    now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to expire appointment: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *mongoAppointmentRepository) ListByParticipant(ctx context.Context, role model.ListRole, participantID string, limit int) ([]*model.Appointment, error) {
	field, err := participantField(role)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{
			{Key: "appointment_date", Value: -1},
			{Key: "appointment_time24", Value: -1},
		}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{field: participantID}, opts)
}

func (r *mongoAppointmentRepository) CountByParticipant(ctx context.Context, role model.ListRole, participantID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	field, err := participantField(role)
	if err != nil {
		return 0, err
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{field: participantID})
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// ListPendingThrough returns the participant's pending appointments dated on
// or before date, oldest first.
func (r *mongoAppointmentRepository) ListPendingThrough(ctx context.Context, role model.ListRole, participantID, date string, limit int) ([]*model.Appointment, error) {
	field, err := participantField(role)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		field:              participantID,
		"status":           model.StatusPending,
		"appointment_date": bson.M{"$lte": date},
	}
	opts := options.Find().
		SetSort(bson.D{
			{Key: "appointment_date", Value: 1},
			{Key: "appointment_time24", Value: 1},
		}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *mongoAppointmentRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

// findOneAndUpdate applies update to the appointment with id when it also
// satisfies match. A miss is reported as onMissing.
func (r *mongoAppointmentRepository) findOneAndUpdate(ctx context.Context, id string, match, update bson.M, onMissing error) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": objectID}
	for k, v := range match {
		filter[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appt model.Appointment
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&appt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", onMissing, id)
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, appointmentserrors.ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return &appt, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}
	return objectID, nil
}

func participantField(role model.ListRole) (string, error) {
	switch role {
	case model.RoleOwner:
		return "owner_id", nil
	case model.RoleDoctor:
		return "doctor_id", nil
	case model.RoleHospital:
		return "hospital_id", nil
	}
	return "", fmt.Errorf("unknown participant role %q", role)
}

