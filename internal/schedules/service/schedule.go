package service

import (
	"context"
	"errors"
	"time"

	scheduleerrors "clinicbook/internal/schedules/errors"
	"clinicbook/internal/schedules/repository"
	"clinicbook/internal/schedules/validator"
	"clinicbook/pkg/config"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type ScheduleService interface {
	Create(ctx context.Context, actor model.Actor, sc *model.Schedule) error
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.Schedule, error)
	ListOwn(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Schedule, int64, error)
	Update(ctx context.Context, actor model.Actor, id string, updates *model.ScheduleUpdate) error
	Delete(ctx context.Context, actor model.Actor, id string) error
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	validator *validator.ScheduleValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	validator *validator.ScheduleValidator,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *scheduleService) Create(ctx context.Context, actor model.Actor, sc *model.Schedule) error {
	if !actor.IsDoctor() {
		return apperrors.Forbidden("Only doctors can publish availability schedules")
	}

	// Ownership is never taken from the payload.
	sc.DoctorID = actor.ID

	if err := s.validate(sc); err != nil {
		s.cfg.Log.Warn("Schedule validation failed",
			"doctor_id", sc.DoctorID,
			"date", sc.Date,
			"error", err,
		)
		return err
	}

	if err := s.repo.Create(ctx, sc); err != nil {
		if errors.Is(err, scheduleerrors.ErrDuplicateWindow) {
			return apperrors.Conflict("An identical schedule window already exists")
		}
		s.cfg.Log.Error("Failed to create schedule",
			"doctor_id", sc.DoctorID,
			"date", sc.Date,
			"error", err,
		)
		return apperrors.Internal("Failed to create schedule", err)
	}

	s.cfg.Log.Info("Schedule created successfully",
		"id", sc.ID,
		"doctor_id", sc.DoctorID,
		"date", sc.Date,
		"window", sc.StartTime+"-"+sc.EndTime,
	)
	return nil
}

func (s *scheduleService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Schedule, error) {
	sc, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *scheduleService) ListOwn(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Schedule, int64, error) {
	if !actor.IsDoctor() {
		return nil, 0, apperrors.Forbidden("Only doctors have availability schedules")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	schedules, err := s.repo.FindByDoctor(ctx, actor.ID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list schedules", "doctor_id", actor.ID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve schedules", err)
	}

	count, err := s.repo.CountByDoctor(ctx, actor.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to count schedules", "doctor_id", actor.ID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count schedules", err)
	}

	return schedules, count, nil
}

func (s *scheduleService) Update(ctx context.Context, actor model.Actor, id string, updates *model.ScheduleUpdate) error {
	existing, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	merged := s.merge(existing, updates)
	if err := s.validate(merged); err != nil {
		s.cfg.Log.Warn("Schedule validation failed",
			"id", id,
			"doctor_id", merged.DoctorID,
			"error", err,
		)
		return err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, scheduleerrors.ErrDuplicateWindow) {
			return apperrors.Conflict("An identical schedule window already exists")
		}
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Schedule", id)
		}
		s.cfg.Log.Error("Failed to update schedule", "id", id, "error", err)
		return apperrors.Internal("Failed to update schedule", err)
	}

	s.cfg.Log.Info("Schedule updated successfully", "id", id, "doctor_id", merged.DoctorID)
	return nil
}

func (s *scheduleService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if _, err := s.findOwned(ctx, actor, id); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		removed, err := s.repo.DeleteAppointmentsBySchedule(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to remove appointments for schedule", err)
		}
		if removed > 0 {
			s.cfg.Log.Info("Removed appointments with deleted schedule",
				"schedule_id", id,
				"appointments_removed", removed,
			)
		}
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, scheduleerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Schedule", id)
			}
			return apperrors.Internal("Failed to delete schedule", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Schedule deleted successfully", "id", id, "actor_id", actor.ID)
	return nil
}

// findOwned loads the schedule and enforces that the actor is its owner
// doctor or an admin.
func (s *scheduleService) findOwned(ctx context.Context, actor model.Actor, id string) (*model.Schedule, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Schedule ID cannot be empty")
	}

	sc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Schedule", id)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid schedule ID format")
		}
		s.cfg.Log.Error("Failed to get schedule by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve schedule", err)
	}

	if !actor.IsAdmin() && sc.DoctorID != actor.ID {
		return nil, apperrors.Forbidden("You do not own this schedule")
	}

	return sc, nil
}

func (s *scheduleService) validate(sc *model.Schedule) error {
	if err := s.validator.Validate(sc); err != nil {
		return apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.validator.ValidateWindow(sc, s.now(), s.cfg.BusinessDayStart, s.cfg.BusinessDayEnd); err != nil {
		var ve validator.ValidationError
		if errors.As(err, &ve) {
			return apperrors.FieldValidation(ve.Field, ve.Message)
		}
		return apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	return nil
}

func (s *scheduleService) merge(existing *model.Schedule, updates *model.ScheduleUpdate) *model.Schedule {
	merged := *existing

	if updates.Date != "" {
		merged.Date = updates.Date
	}
	if updates.StartTime != "" {
		merged.StartTime = updates.StartTime
	}
	if updates.EndTime != "" {
		merged.EndTime = updates.EndTime
	}

	merged.ID = existing.ID
	merged.DoctorID = existing.DoctorID
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
