package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "vetslots/pkg/errors"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockSlotService struct {
	getAvailableSlotsFunc  func(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error)
	saveWeeklyTemplateFunc func(ctx context.Context, doctorID, weekday string, req *model.SaveTemplateRequest) (*model.SaveTemplateResult, error)
	monthlySummaryFunc     func(ctx context.Context, doctorID string, month, year int) (*model.MonthlyAvailability, error)
}

func (m *mockSlotService) GetAvailableSlots(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error) {
	return m.getAvailableSlotsFunc(ctx, doctorID, date)
}

func (m *mockSlotService) GetDaySlots(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error) {
	return m.getAvailableSlotsFunc(ctx, doctorID, date)
}

func (m *mockSlotService) SaveWeeklyTemplate(ctx context.Context, doctorID, weekday string, req *model.SaveTemplateRequest) (*model.SaveTemplateResult, error) {
	return m.saveWeeklyTemplateFunc(ctx, doctorID, weekday, req)
}

func (m *mockSlotService) ListTemplates(ctx context.Context, doctorID string) ([]*model.SlotTemplate, error) {
	return nil, nil
}

func (m *mockSlotService) MonthlySummary(ctx context.Context, doctorID string, month, year int) (*model.MonthlyAvailability, error) {
	return m.monthlySummaryFunc(ctx, doctorID, month, year)
}

func (m *mockSlotService) LookupSlot(ctx context.Context, doctorID, date string, ref model.SlotRef) (*model.AvailableSlot, error) {
	return nil, nil
}

func TestGetAvailableSlots(t *testing.T) {
	mockService := &mockSlotService{
		getAvailableSlotsFunc: func(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error) {
			if date == "2025-02-30" {
				return nil, apperrors.ValidationField("date", "invalid date")
			}
			return []model.AvailableSlot{{ID: "s1", Time: "9:00 AM", Time24: "09:00"}}, nil
		},
	}
	handler := &SlotHandler{service: mockService, log: logger.Discard()}

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"ok", "?date=2025-03-13", http.StatusOK},
		{"missing date", "", http.StatusBadRequest},
		{"invalid date", "?date=2025-02-30", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/doc-1/slots"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.GetAvailableSlots(w, req, httprouter.Params{{Key: "doctor_id", Value: "doc-1"}})

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/doc-1/slots?date=2025-03-13", nil)
	w := httptest.NewRecorder()
	handler.GetAvailableSlots(w, req, httprouter.Params{{Key: "doctor_id", Value: "doc-1"}})

	var resp struct {
		Data SlotsResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.DoctorID != "doc-1" || resp.Data.Date != "2025-03-13" || len(resp.Data.Slots) != 1 {
		t.Errorf("unexpected response: %+v", resp.Data)
	}
}

func TestSaveWeeklyTemplate(t *testing.T) {
	var gotWeekday string
	mockService := &mockSlotService{
		saveWeeklyTemplateFunc: func(ctx context.Context, doctorID, weekday string, req *model.SaveTemplateRequest) (*model.SaveTemplateResult, error) {
			gotWeekday = weekday
			return &model.SaveTemplateResult{TemplateWritten: true}, nil
		},
	}
	router := httprouter.New()
	NewSlotHandler(mockService, logger.Discard()).RegisterRoutes(router)

	body := `{"slots":[{"time":"9:00 AM"}],"consultation_duration_min":30}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/doctors/doc-1/templates/Thursday", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotWeekday != "Thursday" {
		t.Errorf("weekday = %q, want Thursday", gotWeekday)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/doctors/doc-1/templates/Thursday", strings.NewReader("["))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestMonthlySummary(t *testing.T) {
	var gotMonth, gotYear int
	mockService := &mockSlotService{
		monthlySummaryFunc: func(ctx context.Context, doctorID string, month, year int) (*model.MonthlyAvailability, error) {
			gotMonth, gotYear = month, year
			return &model.MonthlyAvailability{DoctorID: doctorID, Month: month, Year: year}, nil
		},
	}
	handler := &SlotHandler{service: mockService, log: logger.Discard()}
	params := httprouter.Params{{Key: "doctor_id", Value: "doc-1"}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/doctors/doc-1/availability/monthly?month=3&year=2025", nil)
	w := httptest.NewRecorder()
	handler.MonthlySummary(w, req, params)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotMonth != 3 || gotYear != 2025 {
		t.Errorf("got month=%d year=%d", gotMonth, gotYear)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/doctors/doc-1/availability/monthly?month=march&year=2025", nil)
	w = httptest.NewRecorder()
	handler.MonthlySummary(w, req, params)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
