package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"vetslots/internal/slots/service"
	httputil "vetslots/pkg/http"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SlotsResponse struct {
	DoctorID string                `json:"doctor_id"`
	Date     string                `json:"date"`
	Slots    []model.AvailableSlot `json:"slots"`
}

type SlotHandler struct {
	service service.SlotService
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		log:     log,
	}
}

func (h *SlotHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.writeSlots(w, r, ps, "GetAvailableSlots", h.service.GetAvailableSlots)
}

func (h *SlotHandler) GetDaySlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.writeSlots(w, r, ps, "GetDaySlots", h.service.GetDaySlots)
}

func (h *SlotHandler) writeSlots(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	name string,
	fetch func(ctx context.Context, doctorID, date string) ([]model.AvailableSlot, error),
) {
	doctorID := ps.ByName("doctor_id")

	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	slots, err := fetch(r.Context(), doctorID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, SlotsResponse{DoctorID: doctorID, Date: date, Slots: slots}); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) SaveWeeklyTemplate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.SaveTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteBadRequest(w, "Invalid request body"); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SaveWeeklyTemplate", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	result, err := h.service.SaveWeeklyTemplate(r.Context(), ps.ByName("doctor_id"), ps.ByName("weekday"), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SaveWeeklyTemplate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "SaveWeeklyTemplate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) ListTemplates(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	templates, err := h.service.ListTemplates(r.Context(), ps.ByName("doctor_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListTemplates", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, templates); err != nil {
		h.log.Error("failed to write success response", "handler", "ListTemplates", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) MonthlySummary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	summary, err := h.monthlySummary(r, ps.ByName("doctor_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MonthlySummary", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "MonthlySummary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) monthlySummary(r *http.Request, doctorID string) (*model.MonthlyAvailability, error) {
	month, err := httputil.IntQuery(r, "month")
	if err != nil {
		return nil, err
	}
	year, err := httputil.IntQuery(r, "year")
	if err != nil {
		return nil, err
	}
	return h.service.MonthlySummary(r.Context(), doctorID, month, year)
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/doctors/:doctor_id/slots", h.GetAvailableSlots)
	router.GET("/api/v1/doctors/:doctor_id/slots/day", h.GetDaySlots)
	router.GET("/api/v1/doctors/:doctor_id/templates", h.ListTemplates)
	router.PUT("/api/v1/doctors/:doctor_id/templates/:weekday", h.SaveWeeklyTemplate)
	router.GET("/api/v1/doctors/:doctor_id/availability/monthly", h.MonthlySummary)
}
