package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tokenserrors "vetslots/internal/tokens/errors"
	"vetslots/internal/tokens/repository"
	"vetslots/pkg/calendar"
	"vetslots/pkg/config"
	mongotx "vetslots/pkg/db/mongo"
	apperrors "vetslots/pkg/errors"
	"vetslots/pkg/model"
)

// TokenSequencer issues per-hospital daily token numbers. Sequences never go
// backwards and are never reused, so a failed booking leaves a gap.
type TokenSequencer interface {
	Next(ctx context.Context, hospitalID, date string, channel model.BookingChannel) (int64, error)
	Mint(ctx context.Context, hospital *model.Hospital, date string, channel model.BookingChannel) (string, error)
}

type tokenSequencer struct {
	repo repository.TokenRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewTokenSequencer(repo repository.TokenRepository, cfg *config.Config, now func() time.Time) TokenSequencer {
	if now == nil {
		now = time.Now
	}
	return &tokenSequencer{
		repo: repo,
		cfg:  cfg,
		now:  now,
	}
}

func (s *tokenSequencer) Next(ctx context.Context, hospitalID, date string, channel model.BookingChannel) (int64, error) {
	if hospitalID == "" {
		return 0, apperrors.ValidationField("hospital_id", "hospital id is required")
	}
	expireAt, err := ExpiryFor(date)
	if err != nil {
		return 0, apperrors.ValidationField("appointment_date", err.Error())
	}
	if channel == "" {
		channel = model.ChannelStandard
	}
	key := model.TokenKey{HospitalID: hospitalID, AppointmentDate: date, Channel: channel}

	attempts := s.cfg.TokenMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		seq, err := s.repo.Increment(ctx, key, expireAt, s.now().UTC())
		if err == nil {
			return seq, nil
		}
		lastErr = err
		if !errors.Is(err, tokenserrors.ErrCounterRace) {
			break
		}
		s.cfg.Log.Debug("Token counter upsert raced, retrying",
			"hospital_id", hospitalID,
			"date", date,
			"channel", channel,
			"attempt", attempt,
		)
	}

	s.cfg.Log.Error("Failed to issue token", "hospital_id", hospitalID, "date", date, "channel", channel, "error", lastErr)
	if errors.Is(lastErr, tokenserrors.ErrCounterRace) {
		return 0, apperrors.TransientStore("Token counter is busy, retry the booking", lastErr)
	}
	return 0, mongotx.StoreError("Failed to issue token", lastErr)
}

func (s *tokenSequencer) Mint(ctx context.Context, hospital *model.Hospital, date string, channel model.BookingChannel) (string, error) {
	if hospital == nil {
		return "", apperrors.NotFound("Hospital")
	}
	seq, err := s.Next(ctx, hospital.ID, date, channel)
	if err != nil {
		return "", err
	}
	return FormatToken(HospitalInitials(hospital.BusinessName), seq, date, channel), nil
}

// ExpiryFor is midnight UTC of the day after date.
func ExpiryFor(date string) (time.Time, error) {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", tokenserrors.ErrInvalidDate, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, time.UTC), nil
}

// HospitalInitials takes the first letter of every word of the business name,
// uppercased. An empty name gives "XX".
func HospitalInitials(businessName string) string {
	var b strings.Builder
	for _, word := range strings.Fields(businessName) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	if b.Len() == 0 {
		return "XX"
	}
	return b.String()
}

func FormatToken(initials string, seq int64, date string, channel model.BookingChannel) string {
	if channel == model.ChannelEmergency {
		return fmt.Sprintf("%s-EM-00%d-%s", initials, seq, date)
	}
	return fmt.Sprintf("%s00%d-%s", initials, seq, date)
}
