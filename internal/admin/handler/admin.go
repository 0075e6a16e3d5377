package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"clinicbook/internal/admin/service"
	apperrors "clinicbook/pkg/errors"
	httputil "clinicbook/pkg/http"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/middleware"
	"clinicbook/pkg/model"
)

type AdminHandler struct {
	service service.AdminService
	log     *logger.Logger
	authn   func(httprouter.Handle) httprouter.Handle
}

func NewAdminHandler(service service.AdminService, log *logger.Logger, authn func(httprouter.Handle) httprouter.Handle) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
		authn:   authn,
	}
}

func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "ListAppointments", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListAppointments", err)
		return
	}

	status := r.URL.Query().Get("status")

	appointments, totalCount, err := h.service.ListAppointments(r.Context(), actor, status, limit, offset)
	if err != nil {
		h.writeError(w, "ListAppointments", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAppointments", "operation", "WritePaginated", "error", err)
	}
}

func (h *AdminHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "UpdateAppointmentStatus", apperrors.Unauthorized("Authentication required"))
		return
	}

	var update model.AppointmentStatusUpdate
	if !h.decode(w, r, "UpdateAppointmentStatus", &update) {
		return
	}

	if err := h.service.UpdateAppointmentStatus(r.Context(), actor, ps.ByName("id"), &update); err != nil {
		h.writeError(w, "UpdateAppointmentStatus", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AdminHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "DeleteAppointment", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.DeleteAppointment(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteAppointment", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "ListUsers", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListUsers", err)
		return
	}

	role := r.URL.Query().Get("role")

	h.listUsers(w, r, actor, role, limit, offset)
}

// ListDoctors is the doctor-scoped listing mounted at its own path.
func (h *AdminHandler) ListDoctors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "ListDoctors", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListDoctors", err)
		return
	}

	h.listUsers(w, r, actor, model.RoleDoctor, limit, offset)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request, actor model.Actor, role string, limit int, offset int64) {
	users, totalCount, err := h.service.ListUsers(r.Context(), actor, role, limit, offset)
	if err != nil {
		h.writeError(w, "ListUsers", err)
		return
	}

	if err := httputil.WritePaginated(w, users, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListUsers", "operation", "WritePaginated", "error", err)
	}
}

type activeUpdate struct {
	Active bool `json:"is_active"`
}

func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "SetUserActive", apperrors.Unauthorized("Authentication required"))
		return
	}

	var update activeUpdate
	if !h.decode(w, r, "SetUserActive", &update) {
		return
	}

	if err := h.service.SetUserActive(r.Context(), actor, ps.ByName("id"), update.Active); err != nil {
		h.writeError(w, "SetUserActive", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "DeleteUser", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteUser", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "Report", apperrors.Unauthorized("Authentication required"))
		return
	}

	report, err := h.service.Report(r.Context(), actor)
	if err != nil {
		h.writeError(w, "Report", err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Report", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, handlerName string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handlerName, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}
	return true
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/appointments", h.authn(h.ListAppointments))
	router.PATCH("/api/v1/admin/appointments/:id", h.authn(h.UpdateAppointmentStatus))
	router.DELETE("/api/v1/admin/appointments/:id", h.authn(h.DeleteAppointment))
	router.GET("/api/v1/admin/users", h.authn(h.ListUsers))
	router.GET("/api/v1/admin/doctors", h.authn(h.ListDoctors))
	router.PATCH("/api/v1/admin/users/:id/status", h.authn(h.SetUserActive))
	router.PATCH("/api/v1/admin/doctors/:id/status", h.authn(h.SetUserActive))
	router.DELETE("/api/v1/admin/users/:id", h.authn(h.DeleteUser))
	router.GET("/api/v1/admin/reports", h.authn(h.Report))
}
