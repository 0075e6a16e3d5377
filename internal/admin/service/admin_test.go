package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	apptserrors "clinicbook/internal/appointments/errors"
	userserrors "clinicbook/internal/users/errors"
	"clinicbook/pkg/config"
	apperrors "clinicbook/pkg/errors"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

const (
	adminID       = "507f1f77bcf86cd799439001"
	doctorID      = "507f1f77bcf86cd799439011"
	patientID     = "507f1f77bcf86cd799439031"
	appointmentID = "507f1f77bcf86cd799439041"
)

var adminActor = model.Actor{ID: adminID, Role: model.RoleAdmin, FullName: "Root Admin"}

type mockAppointmentStore struct {
	updateStatusFunc  func(ctx context.Context, id string, status string, notes *string) error
	deleteFunc        func(ctx context.Context, id string) error
	findAllFunc       func(ctx context.Context, status string, limit int, offset int64) ([]*model.Appointment, error)
	countFunc         func(ctx context.Context, status string) (int64, error)
	perDoctorFunc     func(ctx context.Context) ([]model.DoctorAppointmentCount, error)
	completedRevFunc  func(ctx context.Context) (int64, error)
	bookedDetailsFunc func(ctx context.Context, limit int, offset int64) ([]model.BookedAppointmentDetail, error)
}

func (m *mockAppointmentStore) UpdateStatus(ctx context.Context, id string, status string, notes *string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, notes)
	}
	return nil
}

func (m *mockAppointmentStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockAppointmentStore) FindAll(ctx context.Context, status string, limit int, offset int64) ([]*model.Appointment, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, status, limit, offset)
	}
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentStore) Count(ctx context.Context, status string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, status)
	}
	return 0, nil
}

func (m *mockAppointmentStore) AppointmentsPerDoctor(ctx context.Context) ([]model.DoctorAppointmentCount, error) {
	if m.perDoctorFunc != nil {
		return m.perDoctorFunc(ctx)
	}
	return []model.DoctorAppointmentCount{}, nil
}

func (m *mockAppointmentStore) CompletedRevenue(ctx context.Context) (int64, error) {
	if m.completedRevFunc != nil {
		return m.completedRevFunc(ctx)
	}
	return 0, nil
}

func (m *mockAppointmentStore) BookedDetails(ctx context.Context, limit int, offset int64) ([]model.BookedAppointmentDetail, error) {
	if m.bookedDetailsFunc != nil {
		return m.bookedDetailsFunc(ctx, limit, offset)
	}
	return []model.BookedAppointmentDetail{}, nil
}

type mockUserStore struct {
	findAllFunc       func(ctx context.Context, role string, limit int, offset int64) ([]*model.User, error)
	countFunc         func(ctx context.Context, role string) (int64, error)
	updateActiveFunc  func(ctx context.Context, id string, active bool) error
	deleteCascadeFunc func(ctx context.Context, id string) error
}

func (m *mockUserStore) FindAll(ctx context.Context, role string, limit int, offset int64) ([]*model.User, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, role, limit, offset)
	}
	return []*model.User{}, nil
}

func (m *mockUserStore) Count(ctx context.Context, role string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, role)
	}
	return 0, nil
}

func (m *mockUserStore) UpdateActive(ctx context.Context, id string, active bool) error {
	if m.updateActiveFunc != nil {
		return m.updateActiveFunc(ctx, id, active)
	}
	return nil
}

func (m *mockUserStore) DeleteCascade(ctx context.Context, id string) error {
	if m.deleteCascadeFunc != nil {
		return m.deleteCascadeFunc(ctx, id)
	}
	return nil
}

func newTestAdminService(appts *mockAppointmentStore, users *mockUserStore) *adminService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	if appts == nil {
		appts = &mockAppointmentStore{}
	}
	if users == nil {
		users = &mockUserStore{}
	}

	return &adminService{
		appointments: appts,
		users:        users,
		cfg:          cfg,
	}
}

func TestAdmin_NonAdminsAreRejectedEverywhere(t *testing.T) {
	svc := newTestAdminService(nil, nil)
	doctor := model.Actor{ID: doctorID, Role: model.RoleDoctor}

	checks := map[string]func() error{
		"ListAppointments": func() error {
			_, _, err := svc.ListAppointments(context.Background(), doctor, "", 10, 0)
			return err
		},
		"UpdateAppointmentStatus": func() error {
			return svc.UpdateAppointmentStatus(context.Background(), doctor, appointmentID, &model.AppointmentStatusUpdate{Status: model.StatusConfirmed})
		},
		"DeleteAppointment": func() error {
			return svc.DeleteAppointment(context.Background(), doctor, appointmentID)
		},
		"ListUsers": func() error {
			_, _, err := svc.ListUsers(context.Background(), doctor, "", 10, 0)
			return err
		},
		"SetUserActive": func() error {
			return svc.SetUserActive(context.Background(), doctor, patientID, false)
		},
		"DeleteUser": func() error {
			return svc.DeleteUser(context.Background(), doctor, patientID)
		},
		"Report": func() error {
			_, err := svc.Report(context.Background(), doctor)
			return err
		},
	}

	for name, call := range checks {
		t.Run(name, func(t *testing.T) {
			appErr := apperrors.AsAppError(call())
			if appErr.Code != apperrors.CodeForbidden {
				t.Errorf("expected FORBIDDEN, got %s", appErr.Code)
			}
		})
	}
}

func TestListAppointments_StatusFilter(t *testing.T) {
	var gotStatus string
	appts := &mockAppointmentStore{
		findAllFunc: func(ctx context.Context, status string, limit int, offset int64) ([]*model.Appointment, error) {
			gotStatus = status
			return []*model.Appointment{{ID: appointmentID, Status: status}}, nil
		},
		countFunc: func(ctx context.Context, status string) (int64, error) { return 1, nil },
	}
	svc := newTestAdminService(appts, nil)

	list, count, err := svc.ListAppointments(context.Background(), adminActor, model.StatusCancelled, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStatus != model.StatusCancelled {
		t.Errorf("filter = %q, want cancelled", gotStatus)
	}
	if len(list) != 1 || count != 1 {
		t.Errorf("list=%d count=%d, want 1/1", len(list), count)
	}
}

func TestListAppointments_UnknownStatus(t *testing.T) {
	svc := newTestAdminService(nil, nil)

	_, _, err := svc.ListAppointments(context.Background(), adminActor, "archived", 10, 0)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
}

func TestUpdateAppointmentStatus_PendingNotSettable(t *testing.T) {
	svc := newTestAdminService(nil, nil)

	err := svc.UpdateAppointmentStatus(context.Background(), adminActor, appointmentID, &model.AppointmentStatusUpdate{
		Status: model.StatusPending,
	})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
}

func TestUpdateAppointmentStatus_NotFound(t *testing.T) {
	appts := &mockAppointmentStore{
		updateStatusFunc: func(ctx context.Context, id string, status string, notes *string) error {
			return fmt.Errorf("%w: %s", apptserrors.ErrNotFound, id)
		},
	}
	svc := newTestAdminService(appts, nil)

	err := svc.UpdateAppointmentStatus(context.Background(), adminActor, appointmentID, &model.AppointmentStatusUpdate{
		Status: model.StatusConfirmed,
	})
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
}

func TestDeleteAppointment_Succeeds(t *testing.T) {
	var deleted string
	appts := &mockAppointmentStore{
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestAdminService(appts, nil)

	if err := svc.DeleteAppointment(context.Background(), adminActor, appointmentID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != appointmentID {
		t.Errorf("deleted %q, want %q", deleted, appointmentID)
	}
}

func TestListUsers_RoleFilter(t *testing.T) {
	var gotRole string
	users := &mockUserStore{
		findAllFunc: func(ctx context.Context, role string, limit int, offset int64) ([]*model.User, error) {
			gotRole = role
			return []*model.User{{ID: doctorID, Role: role}}, nil
		},
		countFunc: func(ctx context.Context, role string) (int64, error) { return 1, nil },
	}
	svc := newTestAdminService(nil, users)

	_, _, err := svc.ListUsers(context.Background(), adminActor, model.RoleDoctor, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotRole != model.RoleDoctor {
		t.Errorf("filter = %q, want doctor", gotRole)
	}

	_, _, err = svc.ListUsers(context.Background(), adminActor, "superuser", 10, 0)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR for unknown role, got %s", appErr.Code)
	}
}

func TestSetUserActive_SelfLockoutBlocked(t *testing.T) {
	svc := newTestAdminService(nil, nil)

	err := svc.SetUserActive(context.Background(), adminActor, adminID, false)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
}

func TestSetUserActive_UnknownUser(t *testing.T) {
	users := &mockUserStore{
		updateActiveFunc: func(ctx context.Context, id string, active bool) error {
			return fmt.Errorf("%w: %s", userserrors.ErrNotFound, id)
		},
	}
	svc := newTestAdminService(nil, users)

	err := svc.SetUserActive(context.Background(), adminActor, patientID, false)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", appErr.Code)
	}
}

func TestDeleteUser_SelfDeleteBlocked(t *testing.T) {
	var cascaded bool
	users := &mockUserStore{
		deleteCascadeFunc: func(ctx context.Context, id string) error {
			cascaded = true
			return nil
		},
	}
	svc := newTestAdminService(nil, users)

	err := svc.DeleteUser(context.Background(), adminActor, adminID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", appErr.Code)
	}
	if cascaded {
		t.Error("cascade delete must not run for a self-delete")
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	var deleted string
	users := &mockUserStore{
		deleteCascadeFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestAdminService(nil, users)

	if err := svc.DeleteUser(context.Background(), adminActor, doctorID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != doctorID {
		t.Errorf("deleted %q, want %q", deleted, doctorID)
	}
}

func TestReport_AssemblesAllSections(t *testing.T) {
	appts := &mockAppointmentStore{
		countFunc: func(ctx context.Context, status string) (int64, error) {
			if status != "" {
				t.Errorf("report total must count every status, got filter %q", status)
			}
			return 42, nil
		},
		perDoctorFunc: func(ctx context.Context) ([]model.DoctorAppointmentCount, error) {
			return []model.DoctorAppointmentCount{
				{DoctorID: doctorID, DoctorName: "Dr. Dana Levi", Appointments: 17},
			}, nil
		},
		completedRevFunc: func(ctx context.Context) (int64, error) { return 8500, nil },
		bookedDetailsFunc: func(ctx context.Context, limit int, offset int64) ([]model.BookedAppointmentDetail, error) {
			return []model.BookedAppointmentDetail{
				{AppointmentID: appointmentID, DoctorName: "Dr. Dana Levi", PatientName: "Noa Katz", Status: model.StatusPending},
			}, nil
		},
	}
	svc := newTestAdminService(appts, nil)

	report, err := svc.Report(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalAppointments != 42 {
		t.Errorf("total = %d, want 42", report.TotalAppointments)
	}
	if report.TotalRevenue != 8500 {
		t.Errorf("revenue = %d, want 8500", report.TotalRevenue)
	}
	if len(report.AppointmentsPerDoctor) != 1 || report.AppointmentsPerDoctor[0].Appointments != 17 {
		t.Errorf("per-doctor section = %+v", report.AppointmentsPerDoctor)
	}
	if len(report.BookedAppointments) != 1 || report.BookedAppointments[0].PatientName != "Noa Katz" {
		t.Errorf("booked section = %+v", report.BookedAppointments)
	}
}

func TestReport_SurfacesAggregationFailure(t *testing.T) {
	appts := &mockAppointmentStore{
		perDoctorFunc: func(ctx context.Context) ([]model.DoctorAppointmentCount, error) {
			return nil, fmt.Errorf("aggregation exceeded time limit")
		},
	}
	svc := newTestAdminService(appts, nil)

	_, err := svc.Report(context.Background(), adminActor)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", appErr.Code)
	}
}
