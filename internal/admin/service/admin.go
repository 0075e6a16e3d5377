package service

import (
	"context"
	"errors"
	"slices"

	apptserrors "clinicbook/internal/appointments/errors"
	userserrors "clinicbook/internal/users/errors"
	"clinicbook/pkg/config"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"
)

// AppointmentStore is the slice of the appointments repository the
// admin surface needs.
type AppointmentStore interface {
	UpdateStatus(ctx context.Context, id string, status string, notes *string) error
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Appointment, error)
	Count(ctx context.Context, status string) (int64, error)
	AppointmentsPerDoctor(ctx context.Context) ([]model.DoctorAppointmentCount, error)
	CompletedRevenue(ctx context.Context) (int64, error)
	BookedDetails(ctx context.Context, limit int, offset int64) ([]model.BookedAppointmentDetail, error)
}

// UserStore is the slice of the users repository the admin surface
// needs.
type UserStore interface {
	FindAll(ctx context.Context, role string, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context, role string) (int64, error)
	UpdateActive(ctx context.Context, id string, active bool) error
	DeleteCascade(ctx context.Context, id string) error
}

type AdminService interface {
	ListAppointments(ctx context.Context, actor model.Actor, status string, limit int, offset int64) ([]*model.Appointment, int64, error)
	UpdateAppointmentStatus(ctx context.Context, actor model.Actor, id string, update *model.AppointmentStatusUpdate) error
	DeleteAppointment(ctx context.Context, actor model.Actor, id string) error
	ListUsers(ctx context.Context, actor model.Actor, role string, limit int, offset int64) ([]*model.User, int64, error)
	SetUserActive(ctx context.Context, actor model.Actor, id string, active bool) error
	DeleteUser(ctx context.Context, actor model.Actor, id string) error
	Report(ctx context.Context, actor model.Actor) (*model.AdminReport, error)
}

type adminService struct {
	appointments AppointmentStore
	users        UserStore
	cfg          *config.Config
}

func NewAdminService(appointments AppointmentStore, users UserStore, cfg *config.Config) AdminService {
	return &adminService{
		appointments: appointments,
		users:        users,
		cfg:          cfg,
	}
}

var allStatuses = []string{model.StatusPending, model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted}

func (s *adminService) requireAdmin(actor model.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("Administrator access required")
	}
	return nil
}

func (s *adminService) ListAppointments(ctx context.Context, actor model.Actor, status string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, 0, err
	}

	if status != "" && !slices.Contains(allStatuses, status) {
		return nil, 0, apperrors.FieldValidation("status", "Unknown appointment status")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	appointments, err := s.appointments.FindAll(ctx, status, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve appointments", err)
	}

	count, err := s.appointments.Count(ctx, status)
	if err != nil {
		s.cfg.Log.Error("Failed to count appointments", "error", err)
		return nil, 0, apperrors.Internal("Failed to count appointments", err)
	}

	return appointments, count, nil
}

func (s *adminService) UpdateAppointmentStatus(ctx context.Context, actor model.Actor, id string, update *model.AppointmentStatusUpdate) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	if !slices.Contains(model.AllowedStatusUpdates, update.Status) {
		return apperrors.FieldValidation("status", "Status must be one of: confirmed, cancelled, completed")
	}
	if update.Notes != nil && len(*update.Notes) > 1000 {
		return apperrors.FieldValidation("notes", "Notes must be at most 1000 characters")
	}

	if err := s.appointments.UpdateStatus(ctx, id, update.Status, update.Notes); err != nil {
		switch {
		case errors.Is(err, apptserrors.ErrNotFound):
			return apperrors.NotFoundWithID("Appointment", id)
		case errors.Is(err, apptserrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid appointment ID format")
		}
		s.cfg.Log.Error("Failed to update appointment status", "appointment_id", id, "error", err)
		return apperrors.Internal("Failed to update appointment", err)
	}

	s.cfg.Log.Info("Appointment status updated by admin", "appointment_id", id, "status", update.Status, "admin_id", actor.ID)
	return nil
}

func (s *adminService) DeleteAppointment(ctx context.Context, actor model.Actor, id string) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	if err := s.appointments.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, apptserrors.ErrNotFound):
			return apperrors.NotFoundWithID("Appointment", id)
		case errors.Is(err, apptserrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid appointment ID format")
		}
		s.cfg.Log.Error("Failed to delete appointment", "appointment_id", id, "error", err)
		return apperrors.Internal("Failed to delete appointment", err)
	}

	s.cfg.Log.Info("Appointment deleted by admin", "appointment_id", id, "admin_id", actor.ID)
	return nil
}

func (s *adminService) ListUsers(ctx context.Context, actor model.Actor, role string, limit int, offset int64) ([]*model.User, int64, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, 0, err
	}

	if role != "" && role != model.RolePatient && role != model.RoleDoctor && role != model.RoleAdmin {
		return nil, 0, apperrors.FieldValidation("role", "Unknown role")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	users, err := s.users.FindAll(ctx, role, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve users", err)
	}

	count, err := s.users.Count(ctx, role)
	if err != nil {
		s.cfg.Log.Error("Failed to count users", "error", err)
		return nil, 0, apperrors.Internal("Failed to count users", err)
	}

	return users, count, nil
}

// SetUserActive flips the account flag. Deactivated accounts fail login
// and token refresh; existing access tokens age out on their own.
func (s *adminService) SetUserActive(ctx context.Context, actor model.Actor, id string, active bool) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	if id == actor.ID {
		return apperrors.FieldValidation("id", "Administrators cannot deactivate their own account")
	}

	if err := s.users.UpdateActive(ctx, id, active); err != nil {
		switch {
		case errors.Is(err, userserrors.ErrNotFound):
			return apperrors.NotFoundWithID("User", id)
		case errors.Is(err, userserrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to update user active flag", "user_id", id, "error", err)
		return apperrors.Internal("Failed to update user", err)
	}

	s.cfg.Log.Info("User active flag updated", "user_id", id, "active", active, "admin_id", actor.ID)
	return nil
}

// DeleteUser removes the account and everything hanging off it:
// doctor detail, schedules, and appointments on either side.
func (s *adminService) DeleteUser(ctx context.Context, actor model.Actor, id string) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}

	if id == actor.ID {
		return apperrors.FieldValidation("id", "Administrators cannot delete their own account")
	}

	if err := s.users.DeleteCascade(ctx, id); err != nil {
		switch {
		case errors.Is(err, userserrors.ErrNotFound):
			return apperrors.NotFoundWithID("User", id)
		case errors.Is(err, userserrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to delete user", "user_id", id, "error", err)
		return apperrors.Internal("Failed to delete user", err)
	}

	s.cfg.Log.Info("User deleted by admin", "user_id", id, "admin_id", actor.ID)
	return nil
}

// Report assembles the dashboard numbers in one call: totals, per-doctor
// counts, completed-visit revenue, and the current booked list.
func (s *adminService) Report(ctx context.Context, actor model.Actor) (*model.AdminReport, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}

	total, err := s.appointments.Count(ctx, "")
	if err != nil {
		s.cfg.Log.Error("Failed to count appointments for report", "error", err)
		return nil, apperrors.Internal("Failed to build report", err)
	}

	perDoctor, err := s.appointments.AppointmentsPerDoctor(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate per-doctor counts", "error", err)
		return nil, apperrors.Internal("Failed to build report", err)
	}

	revenue, err := s.appointments.CompletedRevenue(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate revenue", "error", err)
		return nil, apperrors.Internal("Failed to build report", err)
	}

	booked, err := s.appointments.BookedDetails(ctx, config.DefaultPaginationLimit, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked appointments", "error", err)
		return nil, apperrors.Internal("Failed to build report", err)
	}

	return &model.AdminReport{
		TotalAppointments:     total,
		AppointmentsPerDoctor: perDoctor,
		TotalRevenue:          revenue,
		BookedAppointments:    booked,
	}, nil
}
