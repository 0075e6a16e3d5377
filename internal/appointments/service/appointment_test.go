package service

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	appointmenterrors "clinicbook/internal/appointments/errors"
	"clinicbook/internal/appointments/validator"
	scheduleerrors "clinicbook/internal/schedules/errors"
	userserrors "clinicbook/internal/users/errors"
	"clinicbook/pkg/config"
	mongotx "clinicbook/pkg/db/mongo"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/kafka"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

const (
	doctorID   = "507f1f77bcf86cd799439011"
	patientID  = "507f1f77bcf86cd799439031"
	schedID    = "507f1f77bcf86cd799439021"
	foreignDoc = "507f1f77bcf86cd799439012"
)

type mockAppointmentRepository struct {
	createFunc       func(ctx context.Context, appt *model.Appointment) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Appointment, error)
	findByPatient    func(ctx context.Context, patientID string, limit int, offset int64) ([]*model.Appointment, error)
	countByPatient   func(ctx context.Context, patientID string) (int64, error)
	timesBySchedule  func(ctx context.Context, scheduleID string) ([]string, error)
	updateStatusFunc func(ctx context.Context, id string, status string, notes *string) error
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, appt)
	}
	appt.ID = "507f1f77bcf86cd799439099"
	return nil
}

func (m *mockAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, appointmenterrors.ErrNotFound
}

func (m *mockAppointmentRepository) FindByPatient(ctx context.Context, pID string, limit int, offset int64) ([]*model.Appointment, error) {
	if m.findByPatient != nil {
		return m.findByPatient(ctx, pID, limit, offset)
	}
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) CountByPatient(ctx context.Context, pID string) (int64, error) {
	if m.countByPatient != nil {
		return m.countByPatient(ctx, pID)
	}
	return 0, nil
}

func (m *mockAppointmentRepository) FindByDoctor(ctx context.Context, dID string) ([]*model.Appointment, error) {
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) FindTimesBySchedule(ctx context.Context, scheduleID string) ([]string, error) {
	if m.timesBySchedule != nil {
		return m.timesBySchedule(ctx, scheduleID)
	}
	return []string{}, nil
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id string, status string, notes *string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, notes)
	}
	return nil
}

func (m *mockAppointmentRepository) Delete(ctx context.Context, id string) error { return nil }

func (m *mockAppointmentRepository) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Appointment, error) {
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) Count(ctx context.Context, status string) (int64, error) {
	return 0, nil
}

func (m *mockAppointmentRepository) AppointmentsPerDoctor(ctx context.Context) ([]model.DoctorAppointmentCount, error) {
	return nil, nil
}

func (m *mockAppointmentRepository) CompletedRevenue(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockAppointmentRepository) BookedDetails(ctx context.Context, limit int, offset int64) ([]model.BookedAppointmentDetail, error) {
	return nil, nil
}

func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockScheduleFinder struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Schedule, error)
}

func (m *mockScheduleFinder) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, scheduleerrors.ErrNotFound
}

type mockDoctorDirectory struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockDoctorDirectory) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

func defaultDoctor() *model.User {
	return &model.User{ID: doctorID, FullName: "Dr. Dana Levi", Role: model.RoleDoctor, Active: true}
}

func defaultSchedule() *model.Schedule {
	return &model.Schedule{
		ID:        schedID,
		DoctorID:  doctorID,
		Date:      "2030-06-20",
		StartTime: "09:00",
		EndTime:   "10:00",
	}
}

func patientActor() model.Actor {
	return model.Actor{ID: patientID, Role: model.RolePatient, FullName: "Noa Katz"}
}

type testDeps struct {
	repo      *mockAppointmentRepository
	schedules *mockScheduleFinder
	doctors   *mockDoctorDirectory
	events    *mockPublisher
}

func newTestService(d testDeps) *appointmentService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	cfg := &config.Config{
		Log:              log,
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
		BusinessDayStart: "09:00",
		BusinessDayEnd:   "18:00",
		SlotDurationMin:  30,
	}

	if d.repo == nil {
		d.repo = &mockAppointmentRepository{}
	}
	if d.schedules == nil {
		d.schedules = &mockScheduleFinder{
			findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
				return defaultSchedule(), nil
			},
		}
	}
	if d.doctors == nil {
		d.doctors = &mockDoctorDirectory{
			findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
				return defaultDoctor(), nil
			},
		}
	}

	var events EventPublisher
	if d.events != nil {
		events = d.events
	}

	return &appointmentService{
		repo:      d.repo,
		schedules: d.schedules,
		doctors:   d.doctors,
		validator: validator.NewAppointmentValidator(log),
		events:    events,
		cfg:       cfg,
		now:       func() time.Time { return time.Date(2030, 6, 15, 10, 0, 0, 0, time.Local) },
	}
}

func bookingRequest() *model.Appointment {
	return &model.Appointment{
		DoctorID:        doctorID,
		ScheduleID:      schedID,
		AppointmentTime: "09:30",
	}
}

func TestBook_HappyPath(t *testing.T) {
	var created *model.Appointment
	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, appt *model.Appointment) error {
			created = appt
			appt.ID = "507f1f77bcf86cd799439099"
			return nil
		},
	}
	events := &mockPublisher{}
	svc := newTestService(testDeps{repo: repo, events: events})

	appt := bookingRequest()
	if err := svc.Book(context.Background(), patientActor(), appt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.PatientID != patientID {
		t.Errorf("PatientID = %s, want the acting patient %s", created.PatientID, patientID)
	}
	if created.Status != model.StatusPending {
		t.Errorf("Status = %s, want pending", created.Status)
	}
	if appt.Date != "2030-06-20" {
		t.Errorf("Date = %s, want schedule's date", appt.Date)
	}

	if len(events.published) != 1 {
		t.Fatalf("published %d events, want 1", len(events.published))
	}
	msg := events.published[0]
	if msg.GetEventType() != model.EventTypeAppointmentBooked {
		t.Errorf("event type = %s, want %s", msg.GetEventType(), model.EventTypeAppointmentBooked)
	}
	var event model.AppointmentBookedEvent
	if err := msg.DecodeValue(&event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.AppointmentTime != "09:30" || event.DoctorName != "Dr. Dana Levi" {
		t.Errorf("unexpected event payload: %+v", event)
	}
}

func TestBook_PatientIdentityCannotBeSpoofed(t *testing.T) {
	var created *model.Appointment
	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, appt *model.Appointment) error {
			created = appt
			return nil
		},
	}
	svc := newTestService(testDeps{repo: repo})

	appt := bookingRequest()
	appt.PatientID = foreignDoc // spoofed
	appt.Status = model.StatusConfirmed

	if err := svc.Book(context.Background(), patientActor(), appt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.PatientID != patientID {
		t.Errorf("PatientID = %s, spoofed identity must be overwritten", created.PatientID)
	}
	if created.Status != model.StatusPending {
		t.Errorf("Status = %s, bookings always start pending", created.Status)
	}
}

func TestBook_TargetMustBeDoctor(t *testing.T) {
	doctors := &mockDoctorDirectory{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: doctorID, Role: model.RolePatient}, nil
		},
	}
	svc := newTestService(testDeps{doctors: doctors})

	err := svc.Book(context.Background(), patientActor(), bookingRequest())
	assertFieldViolation(t, err, "doctor")
}

func TestBook_UnknownDoctorRejected(t *testing.T) {
	doctors := &mockDoctorDirectory{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return nil, fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
		},
	}
	svc := newTestService(testDeps{doctors: doctors})

	err := svc.Book(context.Background(), patientActor(), bookingRequest())
	assertFieldViolation(t, err, "doctor")
}

func TestBook_DoctorLookupFaultIsInternal(t *testing.T) {
	doctors := &mockDoctorDirectory{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return nil, fmt.Errorf("connection reset by peer")
		},
	}
	svc := newTestService(testDeps{doctors: doctors})

	err := svc.Book(context.Background(), patientActor(), bookingRequest())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInternal {
		t.Errorf("expected INTERNAL_ERROR for a storage fault, got %s", appErr.Code)
	}
}

func TestBook_NotesSanitized(t *testing.T) {
	var created *model.Appointment
	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, appt *model.Appointment) error {
			created = appt
			return nil
		},
	}
	svc := newTestService(testDeps{repo: repo})

	appt := bookingRequest()
	appt.Notes = "  Allergic to penicillin\x00\x07  "
	if err := svc.Book(context.Background(), patientActor(), appt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Notes != "Allergic to penicillin" {
		t.Errorf("Notes = %q, want trimmed with control characters stripped", created.Notes)
	}
}

func TestBook_ScheduleOwnershipChecked(t *testing.T) {
	schedules := &mockScheduleFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			sc := defaultSchedule()
			sc.DoctorID = foreignDoc
			return sc, nil
		},
	}
	svc := newTestService(testDeps{schedules: schedules})

	err := svc.Book(context.Background(), patientActor(), bookingRequest())
	assertFieldViolation(t, err, "doctor")
}

func TestBook_ScheduleNotFound(t *testing.T) {
	schedules := &mockScheduleFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return nil, fmt.Errorf("%w: %s", scheduleerrors.ErrNotFound, id)
		},
	}
	svc := newTestService(testDeps{schedules: schedules})

	err := svc.Book(context.Background(), patientActor(), bookingRequest())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
}

func TestBook_OutsideBusinessHours(t *testing.T) {
	// Window reaches past closing time so the business-hours rule, not
	// slot membership, must trigger.
	schedules := &mockScheduleFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			sc := defaultSchedule()
			sc.StartTime = "08:00"
			sc.EndTime = "19:00"
			return sc, nil
		},
	}
	svc := newTestService(testDeps{schedules: schedules})

	for _, at := range []string{"08:00", "18:30"} {
		appt := bookingRequest()
		appt.AppointmentTime = at
		err := svc.Book(context.Background(), patientActor(), appt)
		assertFieldViolation(t, err, "appointment_time")
	}
}

func TestBook_BusinessHourBoundariesInclusive(t *testing.T) {
	schedules := &mockScheduleFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			sc := defaultSchedule()
			sc.StartTime = "09:00"
			sc.EndTime = "18:30"
			return sc, nil
		},
	}
	svc := newTestService(testDeps{repo: &mockAppointmentRepository{}, schedules: schedules})

	// 18:00 is still inside working hours and a valid slot of 09:00-18:30.
	appt := bookingRequest()
	appt.AppointmentTime = "18:00"
	if err := svc.Book(context.Background(), patientActor(), appt); err != nil {
		t.Errorf("booking at closing boundary should succeed, got %v", err)
	}
}

func TestBook_PastSlotRejected(t *testing.T) {
	schedules := &mockScheduleFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			sc := defaultSchedule()
			sc.Date = "2030-06-15" // today in test clock
			return sc, nil
		},
	}
	svc := newTestService(testDeps{schedules: schedules})

	appt := bookingRequest()
	appt.AppointmentTime = "09:30" // now is 10:00
	err := svc.Book(context.Background(), patientActor(), appt)
	assertFieldViolation(t, err, "appointment_time")
}

func TestBook_OffGridTimeRejected(t *testing.T) {
	svc := newTestService(testDeps{})

	for _, at := range []string{"09:15", "10:00", "08:30"} {
		appt := bookingRequest()
		appt.AppointmentTime = at
		err := svc.Book(context.Background(), patientActor(), appt)
		assertFieldViolation(t, err, "appointment_time")
	}
}

func TestBook_SlotTakenIsConflict(t *testing.T) {
	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, appt *model.Appointment) error {
			return fmt.Errorf("%w: duplicate", appointmenterrors.ErrSlotTaken)
		},
	}
	svc := newTestService(testDeps{repo: repo})

	err := svc.Book(context.Background(), patientActor(), bookingRequest())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT, got %s", appErr.Code)
	}
}

func TestBook_PublishFailureDoesNotFailBooking(t *testing.T) {
	events := &mockPublisher{err: fmt.Errorf("broker down")}
	svc := newTestService(testDeps{events: events})

	if err := svc.Book(context.Background(), patientActor(), bookingRequest()); err != nil {
		t.Errorf("booking must survive event delivery failure, got %v", err)
	}
}

func TestBook_NilPublisherTolerated(t *testing.T) {
	svc := newTestService(testDeps{})

	if err := svc.Book(context.Background(), patientActor(), bookingRequest()); err != nil {
		t.Errorf("unexpected error without a publisher: %v", err)
	}
}

func TestAvailableSlots_ExcludesActiveBookings(t *testing.T) {
	repo := &mockAppointmentRepository{
		timesBySchedule: func(ctx context.Context, scheduleID string) ([]string, error) {
			return []string{"09:00"}, nil
		},
	}
	svc := newTestService(testDeps{repo: repo})

	result, err := svc.AvailableSlots(context.Background(), doctorID, schedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"09:30"}
	if !reflect.DeepEqual(result.AvailableSlots, want) {
		t.Errorf("AvailableSlots = %v, want %v", result.AvailableSlots, want)
	}
	if result.Date != "2030-06-20" {
		t.Errorf("Date = %s, want schedule's date", result.Date)
	}
}

func TestAvailableSlots_EmptyWhenFullyBooked(t *testing.T) {
	repo := &mockAppointmentRepository{
		timesBySchedule: func(ctx context.Context, scheduleID string) ([]string, error) {
			return []string{"09:00", "09:30"}, nil
		},
	}
	svc := newTestService(testDeps{repo: repo})

	result, err := svc.AvailableSlots(context.Background(), doctorID, schedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.AvailableSlots) != 0 {
		t.Errorf("AvailableSlots = %v, want empty", result.AvailableSlots)
	}
}

func TestAvailableSlots_ScheduleOfOtherDoctorIsNotFound(t *testing.T) {
	svc := newTestService(testDeps{})

	_, err := svc.AvailableSlots(context.Background(), foreignDoc, schedID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND for mismatched doctor, got %s", appErr.Code)
	}
}

func TestAvailableSlots_MalformedScheduleIDIsNotFound(t *testing.T) {
	schedules := &mockScheduleFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Schedule, error) {
			return nil, fmt.Errorf("%w: %s", scheduleerrors.ErrInvalidID, id)
		},
	}
	svc := newTestService(testDeps{schedules: schedules})

	_, err := svc.AvailableSlots(context.Background(), doctorID, "not-a-hex-id")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND for malformed schedule ID, got %s", appErr.Code)
	}
}

func TestUpdateStatus_OwnerDoctor(t *testing.T) {
	var gotStatus string
	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, DoctorID: doctorID, PatientID: patientID, Status: model.StatusPending}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string, notes *string) error {
			gotStatus = status
			return nil
		},
	}
	svc := newTestService(testDeps{repo: repo})

	actor := model.Actor{ID: doctorID, Role: model.RoleDoctor}
	err := svc.UpdateStatus(context.Background(), actor, "507f1f77bcf86cd799439099", &model.AppointmentStatusUpdate{Status: model.StatusConfirmed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStatus != model.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", gotStatus)
	}
}

func TestUpdateStatus_PermissionMatrix(t *testing.T) {
	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, DoctorID: doctorID, PatientID: patientID, Status: model.StatusPending}, nil
		},
	}
	svc := newTestService(testDeps{repo: repo})
	update := &model.AppointmentStatusUpdate{Status: model.StatusCancelled}

	tests := []struct {
		name      string
		actor     model.Actor
		wantError bool
	}{
		{"admin allowed", model.Actor{ID: foreignDoc, Role: model.RoleAdmin}, false},
		{"owning doctor allowed", model.Actor{ID: doctorID, Role: model.RoleDoctor}, false},
		{"other doctor forbidden", model.Actor{ID: foreignDoc, Role: model.RoleDoctor}, true},
		{"patient forbidden even on own appointment", model.Actor{ID: patientID, Role: model.RolePatient}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateStatus(context.Background(), tt.actor, "507f1f77bcf86cd799439099", update)
			if tt.wantError {
				appErr := apperrors.AsAppError(err)
				if appErr.Code != apperrors.CodeForbidden {
					t.Errorf("expected FORBIDDEN, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateStatus_NotesSanitized(t *testing.T) {
	var gotNotes *string
	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return &model.Appointment{ID: id, DoctorID: doctorID, PatientID: patientID, Status: model.StatusPending}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string, notes *string) error {
			gotNotes = notes
			return nil
		},
	}
	svc := newTestService(testDeps{repo: repo})

	notes := "  Follow up\x07 in two weeks  "
	actor := model.Actor{ID: doctorID, Role: model.RoleDoctor}
	err := svc.UpdateStatus(context.Background(), actor, "507f1f77bcf86cd799439099", &model.AppointmentStatusUpdate{
		Status: model.StatusCompleted,
		Notes:  &notes,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotNotes == nil || *gotNotes != "Follow up in two weeks" {
		t.Errorf("notes = %v, want trimmed with control characters stripped", gotNotes)
	}
}

func TestUpdateStatus_PendingNotSettable(t *testing.T) {
	svc := newTestService(testDeps{})

	actor := model.Actor{ID: doctorID, Role: model.RoleDoctor}
	err := svc.UpdateStatus(context.Background(), actor, "507f1f77bcf86cd799439099", &model.AppointmentStatusUpdate{Status: model.StatusPending})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR for pending, got %s", appErr.Code)
	}
}

func TestMyAppointments_ScopedToActor(t *testing.T) {
	var queried string
	repo := &mockAppointmentRepository{
		findByPatient: func(ctx context.Context, pID string, limit int, offset int64) ([]*model.Appointment, error) {
			queried = pID
			return []*model.Appointment{{ID: "507f1f77bcf86cd799439099", PatientID: pID}}, nil
		},
		countByPatient: func(ctx context.Context, pID string) (int64, error) { return 1, nil },
	}
	svc := newTestService(testDeps{repo: repo})

	appointments, count, err := svc.MyAppointments(context.Background(), patientActor(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queried != patientID {
		t.Errorf("queried patient %q, want actor's ID %q", queried, patientID)
	}
	if count != 1 || len(appointments) != 1 {
		t.Errorf("got %d appointments (count %d), want 1", len(appointments), count)
	}
}

func assertFieldViolation(t *testing.T, err error, field string) {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %s (%s)", appErr.Code, appErr.Message)
	}
	if got := appErr.Details["field"]; got != field {
		t.Errorf("violated field = %v, want %s", got, field)
	}
}
