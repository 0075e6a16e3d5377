package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"clinicbook/internal/users/service"
	apperrors "clinicbook/pkg/errors"
	httputil "clinicbook/pkg/http"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/middleware"
	"clinicbook/pkg/model"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
	authn   func(httprouter.Handle) httprouter.Handle
}

func NewUserHandler(service service.UserService, log *logger.Logger, authn func(httprouter.Handle) httprouter.Handle) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
		authn:   authn,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if !h.decode(w, r, "Register", &req) {
		return
	}

	pair, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, pair); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) DoctorSignup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if !h.decode(w, r, "DoctorSignup", &req) {
		return
	}

	pair, err := h.service.DoctorSignup(r.Context(), &req)
	if err != nil {
		h.writeError(w, "DoctorSignup", err)
		return
	}

	if err := httputil.WriteCreated(w, pair); err != nil {
		h.log.Error("failed to write created response", "handler", "DoctorSignup", "operation", "WriteCreated", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if !h.decode(w, r, "Login", &req) {
		return
	}

	pair, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, pair); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RefreshRequest
	if !h.decode(w, r, "Refresh", &req) {
		return
	}

	if req.Refresh == "" {
		h.writeError(w, "Refresh", apperrors.FieldValidation("refresh", "refresh is required"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		h.writeError(w, "Refresh", err)
		return
	}

	if err := httputil.WriteSuccess(w, pair); err != nil {
		h.log.Error("failed to write success response", "handler", "Refresh", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "Profile", apperrors.Unauthorized("Authentication required"))
		return
	}

	profile, err := h.service.Profile(r.Context(), actor)
	if err != nil {
		h.writeError(w, "Profile", err)
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "Profile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.writeError(w, "UpdateProfile", apperrors.Unauthorized("Authentication required"))
		return
	}

	var update model.ProfileUpdate
	if !h.decode(w, r, "UpdateProfile", &update) {
		return
	}

	if err := h.service.UpdateProfile(r.Context(), actor, &update); err != nil {
		h.writeError(w, "UpdateProfile", err)
		return
	}

	httputil.WriteNoContent(w)
}

// Doctors is the public directory. No authentication; filters come from
// the query string.
func (h *UserHandler) Doctors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Doctors", err)
		return
	}

	specialization := r.URL.Query().Get("specialization")
	location := r.URL.Query().Get("location")

	doctors, totalCount, err := h.service.Doctors(r.Context(), specialization, location, limit, offset)
	if err != nil {
		h.writeError(w, "Doctors", err)
		return
	}

	if err := httputil.WritePaginated(w, doctors, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Doctors", "operation", "WritePaginated", "error", err)
	}
}

func (h *UserHandler) DoctorByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doctor, err := h.service.DoctorByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "DoctorByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, doctor); err != nil {
		h.log.Error("failed to write success response", "handler", "DoctorByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) decode(w http.ResponseWriter, r *http.Request, handlerName string, dst any) bool {
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

func (h *UserHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/users/register", h.Register)
	router.POST("/api/v1/users/signup/doctor", h.DoctorSignup)
	router.POST("/api/v1/users/login", h.Login)
	router.POST("/api/v1/users/token/refresh", h.Refresh)
	router.GET("/api/v1/users/profile", h.authn(h.Profile))
	router.PATCH("/api/v1/users/profile", h.authn(h.UpdateProfile))
	router.GET("/api/v1/doctors", h.Doctors)
	router.GET("/api/v1/doctors/:id", h.DoctorByID)
}
