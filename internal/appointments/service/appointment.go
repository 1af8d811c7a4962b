package service

import (
	"context"
	"errors"
	"sync"
	"time"

	appointmentserrors "vetslots/internal/appointments/errors"
	"vetslots/internal/appointments/events"
	"vetslots/internal/appointments/repository"
	"vetslots/internal/appointments/validator"
	"vetslots/internal/availability"
	"vetslots/pkg/calendar"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	apperrors "vetslots/pkg/errors"
	"vetslots/pkg/model"
	"vetslots/pkg/sanitizer"
	"vetslots/pkg/validation"
)

// SlotLookup resolves a requested slot against the doctor's template for a date.
type SlotLookup interface {
	LookupSlot(ctx context.Context, doctorID, date string, ref model.SlotRef) (*model.AvailableSlot, error)
}

type Directory interface {
	Hospital(ctx context.Context, id string) (*model.Hospital, error)
	Pet(ctx context.Context, id string) (*model.Pet, error)
}

type TokenMinter interface {
	Mint(ctx context.Context, hospital *model.Hospital, date string, channel model.BookingChannel) (string, error)
}

type AppointmentService interface {
	Book(ctx context.Context, callerID string, req *model.BookingRequest) (*model.Appointment, error)
	BookEmergency(ctx context.Context, callerID string, req *model.BookingRequest) (*model.Appointment, error)
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.Appointment, error)
	Reschedule(ctx context.Context, id string, req *model.RescheduleRequest) (*model.Appointment, error)
	List(ctx context.Context, query ListQuery) (model.AppointmentListing, error)
}

type ListQuery struct {
	CallerID string
	Role     model.ListRole
	// Bucket restricts the listing to one bucket when set.
	Bucket model.Bucket
	Limit  int
	Offset int64
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	slots     SlotLookup
	directory Directory
	tokens    TokenMinter
	events    events.Publisher
	validator *validator.AppointmentValidator
	resolver  *availability.Resolver
	cfg       *config.Config
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	slots SlotLookup,
	directory Directory,
	tokens TokenMinter,
	publisher events.Publisher,
	validator *validator.AppointmentValidator,
	resolver *availability.Resolver,
	cfg *config.Config,
) AppointmentService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &appointmentService{
		repo:      repo,
		slots:     slots,
		directory: directory,
		tokens:    tokens,
		events:    publisher,
		validator: validator,
		resolver:  resolver,
		cfg:       cfg,
	}
}

func (s *appointmentService) Book(ctx context.Context, callerID string, req *model.BookingRequest) (*model.Appointment, error) {
	return s.book(ctx, callerID, req, model.ChannelStandard)
}

// BookEmergency skips the template check so a walk-in can be slotted at any
// time, but still refuses a time another live appointment holds. It draws
// tokens from the emergency sequence.
func (s *appointmentService) BookEmergency(ctx context.Context, callerID string, req *model.BookingRequest) (*model.Appointment, error) {
	return s.book(ctx, callerID, req, model.ChannelEmergency)
}

// book checks the slot, resolves the pet and hospital, mints a token and
// writes the ledger row. The partial unique index on the ledger is the final
// word on conflicts; a token minted for a booking that then loses the race is
// not given back.
func (s *appointmentService) book(ctx context.Context, callerID string, req *model.BookingRequest, channel model.BookingChannel) (*model.Appointment, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}
	sanitizeBooking(req)
	if err := s.validateBooking(req, channel); err != nil {
		return nil, err
	}

	slot, err := s.resolveSlot(ctx, req, channel)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, req.DoctorID, req.Date, slot, ""); err != nil {
		return nil, err
	}

	hospital, pet, err := s.loadParticipants(ctx, req.HospitalID, req.PetID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Mint(ctx, hospital, req.Date, channel)
	if err != nil {
		return nil, err
	}

	status := model.StatusPending
	if channel == model.ChannelEmergency && req.Status != "" {
		status = req.Status
	}
	ownerID := pet.OwnerID
	if ownerID == "" {
		ownerID = callerID
	}
	weekday, _ := calendar.WeekdayOfDate(req.Date)
	now := s.resolver.Now().UTC().Truncate(time.Millisecond)

	appt := &model.Appointment{
		HospitalID:        hospital.ID,
		HospitalName:      hospital.BusinessName,
		DoctorID:          req.DoctorID,
		OwnerID:           ownerID,
		PetID:             pet.ID,
		PetName:           pet.Name,
		TokenNumber:       token,
		Channel:           channel,
		Department:        req.Department,
		AppointmentDate:   req.Date,
		AppointmentTime:   slot.Time,
		AppointmentTime24: slot.Time24,
		Day:               string(weekday),
		SlotsID:           slot.ID,
		Status:            status,
		UploadRecords:     req.UploadRecords,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, appt); err != nil {
		if errors.Is(err, appointmentserrors.ErrSlotTaken) {
			s.cfg.Log.Warn("Slot taken while booking",
				"doctor_id", req.DoctorID,
				"date", req.Date,
				"time", slot.Time,
				"unused_token", token,
			)
			return nil, apperrors.SlotAlreadyBooked(req.DoctorID, req.Date, slot.Time)
		}
		s.cfg.Log.Error("Failed to create appointment", "doctor_id", req.DoctorID, "date", req.Date, "error", err)
		return nil, mongotx.StoreError("Failed to create appointment", err)
	}

	s.cfg.Log.Info("Appointment booked",
		"id", appt.ID,
		"doctor_id", appt.DoctorID,
		"hospital_id", appt.HospitalID,
		"date", appt.AppointmentDate,
		"time", appt.AppointmentTime,
		"token", appt.TokenNumber,
		"channel", channel,
	)
	s.events.Publish(ctx, events.AppointmentBooked, appt)
	return appt, nil
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	id = sanitizer.NormalizeID(id)
	if err := s.validator.ValidateID(id); err != nil {
		return nil, s.validationError("Invalid appointment id", err)
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.repositoryError("Failed to retrieve appointment", id, err)
	}
	return appt, nil
}

// Cancel releases the slot. Cancelling twice returns the cancelled record
// unchanged and publishes nothing the second time. The token stays spent.
func (s *appointmentService) Cancel(ctx context.Context, id string, req *model.CancelRequest) (*model.Appointment, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == model.StatusCancelled {
		return existing, nil
	}

	var reason string
	if req != nil {
		req.Reason = sanitizer.TrimAndNormalize(req.Reason)
		if err := s.validator.ValidateCancel(req); err != nil {
			return nil, s.validationError("Invalid cancel request", err)
		}
		reason = req.Reason
	}

	now := s.resolver.Now().UTC().Truncate(time.Millisecond)
	cancelled, err := s.repo.Cancel(ctx, existing.ID, reason, now)
	if errors.Is(err, appointmentserrors.ErrAlreadyCancelled) {
		// A concurrent cancel won; it owns the event.
		return s.GetByID(ctx, existing.ID)
	}
	if err != nil {
		return nil, s.repositoryError("Failed to cancel appointment", existing.ID, err)
	}

	s.cfg.Log.Info("Appointment cancelled",
		"id", cancelled.ID,
		"doctor_id", cancelled.DoctorID,
		"date", cancelled.AppointmentDate,
		"time", cancelled.AppointmentTime,
	)
	s.events.Publish(ctx, events.AppointmentCancelled, cancelled)
	return cancelled, nil
}

// Reschedule moves the appointment within its own doctor's schedule. The new
// slot must exist in that doctor's template for the new date's weekday and
// must not be held by another live appointment.
func (s *appointmentService) Reschedule(ctx context.Context, id string, req *model.RescheduleRequest) (*model.Appointment, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}
	req.Date = sanitizer.NormalizeID(req.Date)
	req.Time = sanitizer.TrimAndNormalize(req.Time)
	req.Department = sanitizer.NormalizeName(req.Department)
	if err := s.validator.ValidateReschedule(req); err != nil {
		return nil, s.validationError("Invalid reschedule request", err)
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	slot, err := s.slots.LookupSlot(ctx, existing.DoctorID, req.Date, model.SlotRef{Time: req.Time})
	if err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, existing.DoctorID, req.Date, slot, existing.ID); err != nil {
		return nil, err
	}

	weekday, _ := calendar.WeekdayOfDate(req.Date)
	change := &model.AppointmentReschedule{
		Date:          req.Date,
		Time:          slot.Time,
		Time24:        slot.Time24,
		Day:           string(weekday),
		SlotsID:       slot.ID,
		Department:    req.Department,
		UploadRecords: req.UploadRecords,
	}

	now := s.resolver.Now().UTC().Truncate(time.Millisecond)
	updated, err := s.repo.Reschedule(ctx, existing.ID, change, now)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrSlotTaken) {
			return nil, apperrors.SlotAlreadyBooked(existing.DoctorID, req.Date, slot.Time)
		}
		return nil, s.repositoryError("Failed to reschedule appointment", existing.ID, err)
	}

	s.cfg.Log.Info("Appointment rescheduled",
		"id", updated.ID,
		"doctor_id", updated.DoctorID,
		"from_date", existing.AppointmentDate,
		"from_time", existing.AppointmentTime,
		"to_date", updated.AppointmentDate,
		"to_time", updated.AppointmentTime,
	)
	s.events.Publish(ctx, events.AppointmentRescheduled, updated)
	return updated, nil
}

// List groups the caller's appointments into buckets. Pending appointments
// whose start has passed are cancelled as part of the read; the sweep only
// touches rows that are still pending, so repeating the call is harmless.
// Only the newest MaxListAppointments rows are listed. Past-due pending rows
// beyond that window are still swept, but they are not listed.
func (s *appointmentService) List(ctx context.Context, query ListQuery) (model.AppointmentListing, error) {
	query.CallerID = normalizeCaller(query.Role, query.CallerID)
	if err := s.validator.ValidateListQuery(query.CallerID, query.Role, query.Bucket); err != nil {
		return nil, s.validationError("Invalid appointment query", err)
	}
	limit := config.NormalizePaginationLimit(query.Limit)
	offset := config.NormalizeOffset(query.Offset)

	rows, total, err := s.scanParticipant(ctx, query.Role, query.CallerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments", "role", query.Role, "caller_id", query.CallerID, "error", err)
		return nil, mongotx.StoreError("Failed to list appointments", err)
	}

	now := s.resolver.Now()
	grouped := make(map[model.Bucket][]*model.Appointment, len(model.Buckets))
	for _, appt := range rows {
		bucket, err := s.classify(ctx, appt, now)
		if err != nil {
			return nil, err
		}
		grouped[bucket] = append(grouped[bucket], appt)
	}

	if total > int64(len(rows)) {
		s.cfg.Log.Warn("Appointment listing truncated",
			"role", query.Role,
			"caller_id", query.CallerID,
			"total", total,
			"listed", len(rows),
		)
		if err := s.sweepOutsideWindow(ctx, query, rows, now); err != nil {
			return nil, err
		}
	}

	listing := make(model.AppointmentListing, len(model.Buckets))
	for _, bucket := range model.Buckets {
		if query.Bucket != "" && bucket != query.Bucket {
			continue
		}
		items := grouped[bucket]
		sortBucket(bucket, items)
		listing[bucket] = page(items, limit, offset)
	}
	return listing, nil
}

// scanParticipant reads the newest rows and the participant's full count
// side by side.
func (s *appointmentService) scanParticipant(ctx context.Context, role model.ListRole, callerID string) ([]*model.Appointment, int64, error) {
	var (
		rows              []*model.Appointment
		total             int64
		errRows, errTotal error
	)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		rows, errRows = s.repo.ListByParticipant(ctx, role, callerID, s.cfg.MaxListAppointments)
	}()

	go func() {
		defer wg.Done()
		total, errTotal = s.repo.CountByParticipant(ctx, role, callerID)
	}()

	wg.Wait()
	if err := errors.Join(errRows, errTotal); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// sweepOutsideWindow expires past-due pending rows the listing window did not
// reach.
func (s *appointmentService) sweepOutsideWindow(ctx context.Context, query ListQuery, listed []*model.Appointment, now time.Time) error {
	stale, err := s.repo.ListPendingThrough(ctx, query.Role, query.CallerID, s.resolver.Today(), s.cfg.MaxListAppointments)
	if err != nil {
		s.cfg.Log.Error("Failed to read pending appointments", "role", query.Role, "caller_id", query.CallerID, "error", err)
		return mongotx.StoreError("Failed to read pending appointments", err)
	}

	seen := make(map[string]bool, len(listed))
	for _, appt := range listed {
		seen[appt.ID] = true
	}
	for _, appt := range stale {
		if seen[appt.ID] || s.startsAfter(appt, now) {
			continue
		}
		if _, err := s.expire(ctx, appt, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *appointmentService) classify(ctx context.Context, appt *model.Appointment, now time.Time) (model.Bucket, error) {
	if appt.Status == model.StatusCancelled || appt.IsCanceled == 1 {
		return model.BucketCancel, nil
	}

	upcoming := s.startsAfter(appt, now)
	switch appt.Status {
	case model.StatusPending:
		if upcoming {
			return model.BucketPending, nil
		}
		return s.expire(ctx, appt, now)
	case model.StatusAccepted, model.StatusInProgress, model.StatusCheckedIn:
		if upcoming {
			return model.BucketUpcoming, nil
		}
		return model.BucketPast, nil
	default:
		return model.BucketPast, nil
	}
}

func (s *appointmentService) expire(ctx context.Context, appt *model.Appointment, now time.Time) (model.Bucket, error) {
	at := now.UTC().Truncate(time.Millisecond)
	changed, err := s.repo.ExpirePending(ctx, appt.ID, at)
	if err != nil {
		s.cfg.Log.Error("Failed to expire pending appointment", "id", appt.ID, "error", err)
		return "", mongotx.StoreError("Failed to expire pending appointment", err)
	}

	if !changed {
		// someone moved it off pending since the listing was read
		current, err := s.repo.FindByID(ctx, appt.ID)
		if err != nil {
			return "", s.repositoryError("Failed to reload appointment", appt.ID, err)
		}
		*appt = *current
		if appt.Status != model.StatusPending {
			return s.classify(ctx, appt, now)
		}
		return model.BucketPending, nil
	}

	appt.Status = model.StatusCancelled
	appt.IsCanceled = 1
	appt.CancelReason = repository.ExpiredReason
	appt.UpdatedAt = at

	s.cfg.Log.Info("Pending appointment expired",
		"id", appt.ID,
		"doctor_id", appt.DoctorID,
		"date", appt.AppointmentDate,
		"time", appt.AppointmentTime,
	)
	s.events.Publish(ctx, events.AppointmentExpired, appt)
	return model.BucketCancel, nil
}

func (s *appointmentService) startsAfter(appt *model.Appointment, now time.Time) bool {
	time24 := appt.AppointmentTime24
	if time24 == "" {
		parsed, err := calendar.ParseLabel(appt.AppointmentTime)
		if err != nil {
			s.cfg.Log.Warn("Appointment has an unreadable time", "id", appt.ID, "time", appt.AppointmentTime)
			return false
		}
		time24 = parsed
	}
	startsAt, err := s.resolver.Instant(appt.AppointmentDate, time24)
	if err != nil {
		s.cfg.Log.Warn("Appointment has an unreadable date", "id", appt.ID, "date", appt.AppointmentDate)
		return false
	}
	return startsAt.After(now)
}

func (s *appointmentService) validateBooking(req *model.BookingRequest, channel model.BookingChannel) error {
	if channel == model.ChannelEmergency {
		if err := s.validator.ValidateEmergencyBooking(req); err != nil {
			return s.validationError("Invalid emergency booking", err)
		}
		if req.Date < s.resolver.Today() {
			return apperrors.ValidationField("appointment_date", "emergency bookings cannot be made for a past date")
		}
		return nil
	}
	if err := s.validator.ValidateBooking(req); err != nil {
		return s.validationError("Invalid booking", err)
	}
	return nil
}

// resolveSlot takes the first requested slot. Standard bookings must match an
// open slot of the template; emergency bookings only need a readable time.
func (s *appointmentService) resolveSlot(ctx context.Context, req *model.BookingRequest, channel model.BookingChannel) (*model.AvailableSlot, error) {
	ref := req.Slots[0]
	if channel == model.ChannelStandard {
		return s.slots.LookupSlot(ctx, req.DoctorID, req.Date, ref)
	}

	time24, err := calendar.ParseLabel(ref.Time)
	if err != nil {
		return nil, apperrors.ValidationField("slots[0].time", err.Error())
	}
	label, err := calendar.FormatLabel(time24)
	if err != nil {
		return nil, apperrors.ValidationField("slots[0].time", err.Error())
	}
	return &model.AvailableSlot{ID: ref.ID, Time: label, Time24: time24}, nil
}

// ensureFree fails when a live appointment other than selfID holds the slot.
func (s *appointmentService) ensureFree(ctx context.Context, doctorID, date string, slot *model.AvailableSlot, selfID string) error {
	holder, err := s.repo.FindActiveAtSlot(ctx, doctorID, date, slot.Time24)
	if err != nil {
		s.cfg.Log.Error("Failed to check slot", "doctor_id", doctorID, "date", date, "time", slot.Time, "error", err)
		return mongotx.StoreError("Failed to check slot availability", err)
	}
	if holder != nil && holder.ID != selfID {
		return apperrors.SlotAlreadyBooked(doctorID, date, slot.Time)
	}
	return nil
}

func (s *appointmentService) loadParticipants(ctx context.Context, hospitalID, petID string) (*model.Hospital, *model.Pet, error) {
	var hospital *model.Hospital
	var pet *model.Pet
	var errHospital, errPet error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		hospital, errHospital = s.directory.Hospital(ctx, hospitalID)
	}()

	go func() {
		defer wg.Done()
		pet, errPet = s.directory.Pet(ctx, petID)
	}()

	wg.Wait()
	if errHospital != nil {
		return nil, nil, errHospital
	}
	if errPet != nil {
		return nil, nil, errPet
	}
	return hospital, pet, nil
}

func (s *appointmentService) repositoryError(message, id string, err error) error {
	switch {
	case errors.Is(err, appointmentserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Appointment", id)
	case errors.Is(err, appointmentserrors.ErrInvalidID):
		return apperrors.ValidationField("id", "invalid appointment ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return mongotx.StoreError(message, err)
}

func (s *appointmentService) validationError(message string, err error) error {
	s.cfg.Log.Warn(message, "error", err)

	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
