package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"vetslots/internal/appointments/service"
	httputil "vetslots/pkg/http"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AppointmentHandler struct {
	service service.AppointmentService
	log     *logger.Logger
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.book(w, r, "Book", h.service.Book)
}

func (h *AppointmentHandler) BookEmergency(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.book(w, r, "BookEmergency", h.service.BookEmergency)
}

func (h *AppointmentHandler) book(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	create func(ctx context.Context, callerID string, req *model.BookingRequest) (*model.Appointment, error),
) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, name, "Invalid request body")
		return
	}

	callerID := strings.TrimSpace(r.Header.Get(httputil.CallerIDHeader))
	appt, err := create(r.Context(), callerID, &req)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteCreated(w, appt); err != nil {
		h.log.Error("failed to write created response", "handler", name, "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appt, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// Cancel accepts an empty body; a reason is optional.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeBadRequest(w, "Cancel", "Invalid request body")
		return
	}

	appt, err := h.service.Cancel(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "Reschedule", "Invalid request body")
		return
	}

	appt, err := h.service.Reschedule(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "Reschedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	callerID, err := httputil.ExtractCallerID(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	role := model.ListRole(strings.TrimSpace(query.Get("role")))
	if role == "" {
		role = model.RoleOwner
	}

	listing, err := h.service.List(r.Context(), service.ListQuery{
		CallerID: callerID,
		Role:     role,
		Bucket:   model.Bucket(strings.TrimSpace(query.Get("bucket"))),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) writeBadRequest(w http.ResponseWriter, name, message string) {
	if writeErr := httputil.WriteBadRequest(w, message); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", name, "operation", "WriteJSON", "error", writeErr)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Book)
	router.POST("/api/v1/appointments/emergency", h.BookEmergency)
	router.GET("/api/v1/appointments", h.List)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.PATCH("/api/v1/appointments/id/:id/cancel", h.Cancel)
	router.PATCH("/api/v1/appointments/id/:id/reschedule", h.Reschedule)
}
