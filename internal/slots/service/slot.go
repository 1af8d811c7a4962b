package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vetslots/internal/availability"
	slotserrors "vetslots/internal/slots/errors"
	"vetslots/internal/slots/repository"
	"vetslots/internal/slots/validator"
	"vetslots/pkg/calendar"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	apperrors "vetslots/pkg/errors"
	"vetslots/pkg/model"
	"vetslots/pkg/sanitizer"
	"vetslots/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

// LedgerReader is the read side of the appointment ledger that availability
// needs. Only rows that still hold their slot are returned.
type LedgerReader interface {
	FindActiveByDoctorAndDate(ctx context.Context, doctorID, date string) ([]*model.Appointment, error)
	FindActiveByDoctorInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]*model.Appointment, error)
}

type SlotService interface {
	GetAvailableSlots(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error)
	GetDaySlots(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error)
	SaveWeeklyTemplate(ctx context.Context, doctorID, weekday string, req *model.SaveTemplateRequest) (*model.SaveTemplateResult, error)
	ListTemplates(ctx context.Context, doctorID string) ([]*model.SlotTemplate, error)
	MonthlySummary(ctx context.Context, doctorID string, month, year int) (*model.MonthlyAvailability, error)
	LookupSlot(ctx context.Context, doctorID, date string, ref model.SlotRef) (*model.AvailableSlot, error)
}

type slotService struct {
	templates repository.SlotTemplateRepository
	overrides repository.UnavailabilityRepository
	ledger    LedgerReader
	validator *validator.SlotTemplateValidator
	resolver  *availability.Resolver
	cfg       *config.Config
}

func NewSlotService(
	templates repository.SlotTemplateRepository,
	overrides repository.UnavailabilityRepository,
	ledger LedgerReader,
	validator *validator.SlotTemplateValidator,
	resolver *availability.Resolver,
	cfg *config.Config,
) SlotService {
	return &slotService{
		templates: templates,
		overrides: overrides,
		ledger:    ledger,
		validator: validator,
		resolver:  resolver,
		cfg:       cfg,
	}
}

func (s *slotService) GetAvailableSlots(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error) {
	slots, err := s.GetDaySlots(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return availability.Bookable(slots), nil
}

func (s *slotService) GetDaySlots(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error) {
	doctorID = sanitizer.NormalizeUUID(doctorID)
	weekday, err := s.validateDoctorDate(doctorID, date)
	if err != nil {
		return nil, err
	}

	var template *model.SlotTemplate
	var override *model.Unavailability
	var booked []*model.Appointment
	var errTemplate, errOverride, errBooked error
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		template, errTemplate = s.findTemplate(ctx, doctorID, weekday)
	}()

	go func() {
		defer wg.Done()
		override, errOverride = s.findOverride(ctx, doctorID, date, weekday)
	}()

	go func() {
		defer wg.Done()
		booked, errBooked = s.ledger.FindActiveByDoctorAndDate(ctx, doctorID, date)
		if errBooked != nil {
			errBooked = mongotx.StoreError("Failed to read booked appointments", errBooked)
		}
	}()

	wg.Wait()
	if err := errors.Join(errTemplate, errOverride, errBooked); err != nil {
		s.cfg.Log.Error("Failed to load slot availability", "doctor_id", doctorID, "date", date, "error", err)
		return nil, firstAppError(errTemplate, errOverride, errBooked)
	}

	slots, err := s.resolver.Resolve(availability.Input{
		Date:     date,
		Template: template,
		Override: override,
		Booked:   booked,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to resolve slots", "doctor_id", doctorID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to resolve slots", err)
	}
	return slots, nil
}

func (s *slotService) SaveWeeklyTemplate(ctx context.Context, doctorID, weekdayName string, req *model.SaveTemplateRequest) (*model.SaveTemplateResult, error) {
	doctorID = sanitizer.NormalizeUUID(doctorID)
	if err := s.validator.ValidateDoctorID(doctorID); err != nil {
		return nil, s.validationError("Invalid doctor id", doctorID, err)
	}
	weekday, err := s.validator.ValidateWeekday(weekdayName)
	if err != nil {
		return nil, s.validationError("Invalid weekday", doctorID, err)
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}
	if err := s.validator.ValidateSaveRequest(req); err != nil {
		return nil, s.validationError("Invalid slot template", doctorID, err)
	}

	slots, err := normalizeSlots(req.Slots)
	if err != nil {
		return nil, s.validationError("Invalid slot template", doctorID, err)
	}
	blocked, err := normalizeLabels(req.UnavailableSlots)
	if err != nil {
		return nil, s.validationError("Invalid unavailable slots", doctorID, err)
	}
	if req.Date != "" {
		dateWeekday, _ := calendar.WeekdayOfDate(req.Date)
		if dateWeekday != weekday {
			return nil, apperrors.ValidationField("date", fmt.Sprintf("date %s is a %s, not a %s", req.Date, dateWeekday, weekday))
		}
	}

	now := s.resolver.Now().UTC().Truncate(time.Millisecond)
	result := &model.SaveTemplateResult{}

	err = s.templates.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		template, written, err := s.saveTemplate(sessCtx, doctorID, weekday, slots, req.ConsultationDurationMin, now)
		if err != nil {
			return err
		}
		result.Template = template
		result.TemplateWritten = written

		if req.Date == "" {
			return nil
		}
		override, written, err := s.saveOverride(sessCtx, doctorID, req.Date, weekday, blocked, now)
		if err != nil {
			return err
		}
		result.Unavailability = override
		result.UnavailabilityWrote = written
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to save slot template", "doctor_id", doctorID, "weekday", weekday, "error", err)
		return nil, mongotx.StoreError("Failed to save slot template", err)
	}

	s.cfg.Log.Info("Slot template saved",
		"doctor_id", doctorID,
		"weekday", weekday,
		"slots", len(slots),
		"template_written", result.TemplateWritten,
		"unavailability_written", result.UnavailabilityWrote,
	)
	return result, nil
}

// saveTemplate writes the template only when something changed. An identical
// slot multiset with a new duration updates the duration alone.
func (s *slotService) saveTemplate(
	ctx context.Context,
	doctorID string,
	weekday calendar.Weekday,
	slots []model.Slot,
	durationMin int,
	now time.Time,
) (*model.SlotTemplate, bool, error) {
	existing, err := s.templates.FindByDoctorAndWeekday(ctx, doctorID, weekday)
	if err != nil && !errors.Is(err, slotserrors.ErrTemplateNotFound) {
		return nil, false, err
	}

	if existing != nil {
		assignSlotIDs(slots, existing.Slots)
		if sameSlots(existing.Slots, slots) {
			if existing.ConsultationDurationMin == durationMin {
				return existing, false, nil
			}
			if err := s.templates.UpdateDuration(ctx, doctorID, weekday, durationMin, now); err != nil {
				return nil, false, err
			}
			existing.ConsultationDurationMin = durationMin
			existing.UpdatedAt = now
			return existing, true, nil
		}
	} else {
		assignSlotIDs(slots, nil)
	}

	template := &model.SlotTemplate{
		DoctorID:                doctorID,
		Weekday:                 weekday,
		Slots:                   slots,
		ConsultationDurationMin: durationMin,
		UpdatedAt:               now,
	}
	if err := s.templates.Upsert(ctx, template); err != nil {
		return nil, false, err
	}
	return template, true, nil
}

func (s *slotService) saveOverride(
	ctx context.Context,
	doctorID, date string,
	weekday calendar.Weekday,
	blocked []string,
	now time.Time,
) (*model.Unavailability, bool, error) {
	existing, err := s.overrides.Find(ctx, doctorID, date, weekday)
	if err != nil && !errors.Is(err, slotserrors.ErrUnavailabilityNotFound) {
		return nil, false, err
	}
	if existing != nil && sameLabels(existing.BlockedSlots, blocked) {
		return existing, false, nil
	}

	override := &model.Unavailability{
		DoctorID:     doctorID,
		Date:         date,
		Weekday:      weekday,
		BlockedSlots: blocked,
		UpdatedAt:    now,
	}
	if err := s.overrides.Upsert(ctx, override); err != nil {
		return nil, false, err
	}
	return override, true, nil
}

func (s *slotService) ListTemplates(ctx context.Context, doctorID string) ([]*model.SlotTemplate, error) {
	doctorID = sanitizer.NormalizeUUID(doctorID)
	if err := s.validator.ValidateDoctorID(doctorID); err != nil {
		return nil, s.validationError("Invalid doctor id", doctorID, err)
	}

	templates, err := s.templates.FindByDoctor(ctx, doctorID)
	if err != nil {
		s.cfg.Log.Error("Failed to list slot templates", "doctor_id", doctorID, "error", err)
		return nil, mongotx.StoreError("Failed to list slot templates", err)
	}
	sortByWeekday(templates)
	return templates, nil
}

// MonthlySummary counts the bookable slots of every day in the month. Days
// already behind the business clock count zero.
func (s *slotService) MonthlySummary(ctx context.Context, doctorID string, month, year int) (*model.MonthlyAvailability, error) {
	doctorID = sanitizer.NormalizeUUID(doctorID)
	if err := s.validator.ValidateDoctorID(doctorID); err != nil {
		return nil, s.validationError("Invalid doctor id", doctorID, err)
	}
	dates, err := calendar.MonthDates(year, time.Month(month))
	if err != nil {
		return nil, apperrors.Validation("Invalid month", map[string]any{"month": month, "year": year, "error": err.Error()})
	}
	from, to := dates[0], dates[len(dates)-1]

	var templates []*model.SlotTemplate
	var overrides []*model.Unavailability
	var booked []*model.Appointment
	var errTemplates, errOverrides, errBooked error
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		templates, errTemplates = s.templates.FindByDoctor(ctx, doctorID)
	}()

	go func() {
		defer wg.Done()
		overrides, errOverrides = s.overrides.FindInRange(ctx, doctorID, from, to)
	}()

	go func() {
		defer wg.Done()
		booked, errBooked = s.ledger.FindActiveByDoctorInRange(ctx, doctorID, from, to)
	}()

	wg.Wait()
	if err := errors.Join(errTemplates, errOverrides, errBooked); err != nil {
		s.cfg.Log.Error("Failed to load monthly availability", "doctor_id", doctorID, "month", month, "year", year, "error", err)
		return nil, mongotx.StoreError("Failed to load monthly availability", err)
	}

	byWeekday := make(map[calendar.Weekday]*model.SlotTemplate, len(templates))
	for _, t := range templates {
		byWeekday[t.Weekday] = t
	}
	overrideByDate := make(map[string]*model.Unavailability, len(overrides))
	for _, o := range overrides {
		overrideByDate[o.Date] = o
	}
	bookedByDate := make(map[string][]*model.Appointment)
	for _, a := range booked {
		bookedByDate[a.AppointmentDate] = append(bookedByDate[a.AppointmentDate], a)
	}

	summary := &model.MonthlyAvailability{
		DoctorID: doctorID,
		Year:     year,
		Month:    month,
		Days:     make([]model.DayAvailability, 0, len(dates)),
	}
	for _, date := range dates {
		weekday, _ := calendar.WeekdayOfDate(date)
		override := overrideByDate[date]
		if override != nil && override.Weekday != weekday {
			override = nil
		}

		slots, err := s.resolver.Resolve(availability.Input{
			Date:     date,
			Template: byWeekday[weekday],
			Override: override,
			Booked:   bookedByDate[date],
		})
		if err != nil {
			s.cfg.Log.Error("Failed to resolve slots", "doctor_id", doctorID, "date", date, "error", err)
			return nil, apperrors.Internal("Failed to resolve slots", err)
		}

		summary.Days = append(summary.Days, model.DayAvailability{
			Date:      date,
			Weekday:   string(weekday),
			Available: len(availability.Bookable(slots)),
		})
	}
	return summary, nil
}

// LookupSlot finds the requested slot in the doctor's template for date. The
// slot must be active, not blocked for that date and not yet started; whether
// someone already holds it is the ledger's concern.
func (s *slotService) LookupSlot(ctx context.Context, doctorID, date string, ref model.SlotRef) (*model.AvailableSlot, error) {
	doctorID = sanitizer.NormalizeUUID(doctorID)
	weekday, err := s.validateDoctorDate(doctorID, date)
	if err != nil {
		return nil, err
	}
	time24, err := calendar.ParseLabel(ref.Time)
	if err != nil {
		return nil, apperrors.ValidationField("time", err.Error())
	}

	template, err := s.findTemplate(ctx, doctorID, weekday)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, apperrors.NotFound("Slot template").WithDetails(map[string]any{
			"doctor_id": doctorID,
			"weekday":   weekday,
		})
	}
	override, err := s.findOverride(ctx, doctorID, date, weekday)
	if err != nil {
		return nil, err
	}

	slots, err := s.resolver.Resolve(availability.Input{Date: date, Template: template, Override: override})
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve slots", err)
	}
	for i := range slots {
		if matchesRef(slots[i], ref.ID, time24) {
			return &slots[i], nil
		}
	}

	details := map[string]any{"doctor_id": doctorID, "date": date, "time": ref.Time}
	if !templateHas(template, ref.ID, time24) {
		return nil, apperrors.SlotUnavailable("Requested slot is not part of the doctor's schedule", details)
	}
	return nil, apperrors.SlotUnavailable("Requested slot is inactive, blocked or already started", details)
}

func (s *slotService) findTemplate(ctx context.Context, doctorID string, weekday calendar.Weekday) (*model.SlotTemplate, error) {
	template, err := s.templates.FindByDoctorAndWeekday(ctx, doctorID, weekday)
	if err != nil {
		if errors.Is(err, slotserrors.ErrTemplateNotFound) {
			return nil, nil
		}
		return nil, mongotx.StoreError("Failed to read slot template", err)
	}
	return template, nil
}

func (s *slotService) findOverride(ctx context.Context, doctorID, date string, weekday calendar.Weekday) (*model.Unavailability, error) {
	override, err := s.overrides.Find(ctx, doctorID, date, weekday)
	if err != nil {
		if errors.Is(err, slotserrors.ErrUnavailabilityNotFound) {
			return nil, nil
		}
		return nil, mongotx.StoreError("Failed to read unavailability", err)
	}
	return override, nil
}

func (s *slotService) validateDoctorDate(doctorID, date string) (calendar.Weekday, error) {
	if err := s.validator.ValidateDoctorID(doctorID); err != nil {
		return "", s.validationError("Invalid doctor id", doctorID, err)
	}
	if err := s.validator.ValidateDate(date); err != nil {
		return "", s.validationError("Invalid date", doctorID, err)
	}
	weekday, err := calendar.WeekdayOfDate(date)
	if err != nil {
		return "", apperrors.ValidationField("date", err.Error())
	}
	return weekday, nil
}

func (s *slotService) validationError(message, doctorID string, err error) error {
	s.cfg.Log.Warn(message, "doctor_id", doctorID, "error", err)

	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func firstAppError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
