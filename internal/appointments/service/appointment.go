package service

import (
	"context"
	"errors"
	"time"

	appointmenterrors "clinicbook/internal/appointments/errors"
	"clinicbook/internal/appointments/repository"
	"clinicbook/internal/appointments/validator"
	"clinicbook/internal/slots"
	"clinicbook/pkg/config"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/kafka"
	"clinicbook/pkg/model"
	"clinicbook/pkg/sanitizer"

	scheduleerrors "clinicbook/internal/schedules/errors"
	userserrors "clinicbook/internal/users/errors"
)

// ScheduleFinder is the slice of the schedules repository the booking
// flow needs.
type ScheduleFinder interface {
	FindByID(ctx context.Context, id string) (*model.Schedule, error)
}

// DoctorDirectory resolves the target doctor of a booking.
type DoctorDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// EventPublisher emits domain events. Satisfied by kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type AppointmentService interface {
	Book(ctx context.Context, actor model.Actor, appt *model.Appointment) error
	MyAppointments(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, int64, error)
	AvailableSlots(ctx context.Context, doctorID, scheduleID string) (*model.AvailableSlots, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id string, update *model.AppointmentStatusUpdate) error
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	schedules ScheduleFinder
	doctors   DoctorDirectory
	validator *validator.AppointmentValidator
	events    EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	schedules ScheduleFinder,
	doctors DoctorDirectory,
	validator *validator.AppointmentValidator,
	events EventPublisher,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:      repo,
		schedules: schedules,
		doctors:   doctors,
		validator: validator,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Book runs the booking pipeline: target must be a doctor, the schedule
// must belong to them, the time must sit inside working hours, lie in
// the future, and be a generated slot of the window. Slot exclusivity
// is left to the storage layer's unique index; a duplicate insert comes
// back as a conflict.
func (s *appointmentService) Book(ctx context.Context, actor model.Actor, appt *model.Appointment) error {
	// Patients book for themselves; the payload cannot speak for
	// someone else.
	appt.PatientID = actor.ID
	appt.Status = model.StatusPending
	appt.ID = ""
	appt.Notes = sanitizer.NormalizeNotes(appt.Notes)

	if err := s.validator.Validate(appt); err != nil {
		return s.asValidationError(err)
	}

	doctor, err := s.doctors.FindByID(ctx, appt.DoctorID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return apperrors.FieldValidation("doctor", "Selected user is not a doctor")
		}
		s.cfg.Log.Error("Failed to load doctor for booking", "doctor_id", appt.DoctorID, "error", err)
		return apperrors.Internal("Failed to load doctor", err)
	}
	if doctor.Role != model.RoleDoctor {
		return apperrors.FieldValidation("doctor", "Selected user is not a doctor")
	}

	schedule, err := s.schedules.FindByID(ctx, appt.ScheduleID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Schedule", appt.ScheduleID)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid schedule ID format")
		}
		s.cfg.Log.Error("Failed to load schedule for booking", "schedule_id", appt.ScheduleID, "error", err)
		return apperrors.Internal("Failed to load schedule", err)
	}

	if schedule.DoctorID != appt.DoctorID {
		return apperrors.FieldValidation("doctor", "Schedule does not belong to the selected doctor")
	}

	if appt.AppointmentTime < s.cfg.BusinessDayStart || appt.AppointmentTime > s.cfg.BusinessDayEnd {
		return apperrors.FieldValidation("appointment_time",
			"Appointments can only be booked between "+s.cfg.BusinessDayStart+" and "+s.cfg.BusinessDayEnd)
	}

	if !s.isFuture(schedule.Date, appt.AppointmentTime) {
		return apperrors.FieldValidation("appointment_time", "Cannot book a slot in the past")
	}

	duration := time.Duration(s.cfg.SlotDurationMin) * time.Minute
	ok, err := slots.Contains(schedule.StartTime, schedule.EndTime, appt.AppointmentTime, duration)
	if err != nil {
		s.cfg.Log.Error("Failed to generate slots for schedule",
			"schedule_id", schedule.ID,
			"window", schedule.StartTime+"-"+schedule.EndTime,
			"error", err,
		)
		return apperrors.Internal("Failed to compute schedule slots", err)
	}
	if !ok {
		return apperrors.FieldValidation("appointment_time", "Time is not an available slot of this schedule")
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, appointmenterrors.ErrSlotTaken) {
			return apperrors.Conflict("This slot is already booked")
		}
		s.cfg.Log.Error("Failed to create appointment",
			"doctor_id", appt.DoctorID,
			"schedule_id", appt.ScheduleID,
			"appointment_time", appt.AppointmentTime,
			"error", err,
		)
		return apperrors.Internal("Failed to create appointment", err)
	}

	appt.Date = schedule.Date

	s.publishBooked(ctx, actor, doctor, schedule, appt)

	s.cfg.Log.Info("Appointment booked successfully",
		"id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"schedule_id", appt.ScheduleID,
		"date", appt.Date,
		"appointment_time", appt.AppointmentTime,
	)
	return nil
}

func (s *appointmentService) MyAppointments(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Appointment, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	appointments, err := s.repo.FindByPatient(ctx, actor.ID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments", "patient_id", actor.ID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve appointments", err)
	}

	count, err := s.repo.CountByPatient(ctx, actor.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to count appointments", "patient_id", actor.ID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count appointments", err)
	}

	return appointments, count, nil
}

// AvailableSlots computes the free slots of a schedule: every generated
// slot minus the times already claimed by a non-cancelled appointment.
func (s *appointmentService) AvailableSlots(ctx context.Context, doctorID, scheduleID string) (*model.AvailableSlots, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		// Malformed IDs on this public read look the same as absent
		// schedules.
		if errors.Is(err, scheduleerrors.ErrNotFound) || errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Schedule", scheduleID)
		}
		s.cfg.Log.Error("Failed to load schedule", "schedule_id", scheduleID, "error", err)
		return nil, apperrors.Internal("Failed to load schedule", err)
	}

	if schedule.DoctorID != doctorID {
		return nil, apperrors.NotFoundWithID("Schedule", scheduleID)
	}

	duration := time.Duration(s.cfg.SlotDurationMin) * time.Minute
	all, err := slots.GenerateWithDuration(schedule.StartTime, schedule.EndTime, duration)
	if err != nil {
		s.cfg.Log.Error("Failed to generate slots", "schedule_id", scheduleID, "error", err)
		return nil, apperrors.Internal("Failed to compute schedule slots", err)
	}

	booked, err := s.repo.FindTimesBySchedule(ctx, scheduleID)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked times", "schedule_id", scheduleID, "error", err)
		return nil, apperrors.Internal("Failed to load booked times", err)
	}

	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}

	available := make([]string, 0, len(all))
	for _, slot := range all {
		if !taken[slot] {
			available = append(available, slot)
		}
	}

	return &model.AvailableSlots{
		DoctorID:       doctorID,
		ScheduleID:     scheduleID,
		Date:           schedule.Date,
		AvailableSlots: available,
	}, nil
}

// UpdateStatus moves an appointment to confirmed, cancelled, or
// completed. Only the owning doctor or an admin may do so.
func (s *appointmentService) UpdateStatus(ctx context.Context, actor model.Actor, id string, update *model.AppointmentStatusUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	if update.Notes != nil {
		cleaned := sanitizer.NormalizeNotes(*update.Notes)
		update.Notes = &cleaned
	}

	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return s.asValidationError(err)
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmenterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid appointment ID format")
		}
		s.cfg.Log.Error("Failed to load appointment", "id", id, "error", err)
		return apperrors.Internal("Failed to load appointment", err)
	}

	if !actor.IsAdmin() && !(actor.IsDoctor() && appt.DoctorID == actor.ID) {
		return apperrors.Forbidden("Only the appointment's doctor or an admin can change its status")
	}

	if err := s.repo.UpdateStatus(ctx, id, update.Status, update.Notes); err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to update appointment status", "id", id, "status", update.Status, "error", err)
		return apperrors.Internal("Failed to update appointment status", err)
	}

	s.cfg.Log.Info("Appointment status updated",
		"id", id,
		"status", update.Status,
		"actor_id", actor.ID,
		"actor_role", actor.Role,
	)
	return nil
}

// isFuture reports whether the date+clock pair is strictly after now.
func (s *appointmentService) isFuture(date, clock string) bool {
	at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return false
	}
	return at.After(s.now())
}

// publishBooked emits the booking event. Delivery failures never fail
// the booking itself.
func (s *appointmentService) publishBooked(ctx context.Context, actor model.Actor, doctor *model.User, schedule *model.Schedule, appt *model.Appointment) {
	if s.events == nil {
		return
	}

	event := model.AppointmentBookedEvent{
		AppointmentID:   appt.ID,
		DoctorID:        appt.DoctorID,
		DoctorName:      doctor.FullName,
		PatientID:       appt.PatientID,
		PatientName:     actor.FullName,
		ScheduleID:      appt.ScheduleID,
		Date:            schedule.Date,
		AppointmentTime: appt.AppointmentTime,
		BookedAt:        s.now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(appt.DoctorID).
		WithValue(event).
		WithEventType(model.EventTypeAppointmentBooked).
		WithSource("clinicbook-api").
		Build()

	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"appointment_id", appt.ID,
			"error", err,
		)
	}
}

func (s *appointmentService) asValidationError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperrors.FieldValidation(ve[0].Field, ve[0].Message)
	}
	return apperrors.Validation("Appointment validation failed", map[string]any{
		"error": err.Error(),
	})
}
