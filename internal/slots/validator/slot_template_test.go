package validator

import (
	"testing"

	"vetslots/pkg/calendar"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"
)

func TestSlotTemplateValidator(t *testing.T) {
	v := NewSlotTemplateValidator(logger.Discard())

	if err := v.ValidateDoctorID("8f14e45f-ceea-4e7a-9a2b-1c2d3e4f5a6b"); err != nil {
		t.Errorf("valid doctor id rejected: %v", err)
	}
	if err := v.ValidateDoctorID("not-a-uuid"); err == nil {
		t.Error("expected invalid doctor id to be rejected")
	}
	if err := v.ValidateDate("2025-02-30"); err == nil {
		t.Error("expected impossible date to be rejected")
	}

	day, err := v.ValidateWeekday("thursday")
	if err != nil || day != calendar.Thursday {
		t.Errorf("ValidateWeekday = %s, %v", day, err)
	}
	if _, err := v.ValidateWeekday("4"); err == nil {
		t.Error("numeric weekday must be rejected")
	}
}

func TestValidateSaveRequest(t *testing.T) {
	v := NewSlotTemplateValidator(logger.Discard())

	tests := []struct {
		name    string
		req     model.SaveTemplateRequest
		wantErr bool
	}{
		{
			name: "valid",
			req: model.SaveTemplateRequest{
				Slots:                   []model.SlotInput{{Time: "9:00 AM"}, {Time: "9:30 AM"}},
				ConsultationDurationMin: 30,
			},
		},
		{
			name: "unavailable slots without date",
			req: model.SaveTemplateRequest{
				Slots:                   []model.SlotInput{{Time: "9:00 AM"}},
				ConsultationDurationMin: 30,
				UnavailableSlots:        []string{"9:00 AM"},
			},
			wantErr: true,
		},
		{
			name: "bad label",
			req: model.SaveTemplateRequest{
				Slots:                   []model.SlotInput{{Time: "morning"}},
				ConsultationDurationMin: 30,
			},
			wantErr: true,
		},
		{
			name:    "no slots",
			req:     model.SaveTemplateRequest{ConsultationDurationMin: 30},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSaveRequest(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSaveRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
