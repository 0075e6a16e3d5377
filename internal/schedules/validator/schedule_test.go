package validator

import (
	"strings"
	"testing"
	"time"

	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

func newTestValidator() *ScheduleValidator {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewScheduleValidator(log)
}

func TestValidate_StructRules(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		schedule  *model.Schedule
		wantError bool
		wantField string
	}{
		{
			name: "valid schedule",
			schedule: &model.Schedule{
				DoctorID:  "507f1f77bcf86cd799439011",
				Date:      "2030-06-01",
				StartTime: "09:00",
				EndTime:   "12:00",
			},
			wantError: false,
		},
		{
			name: "missing date",
			schedule: &model.Schedule{
				StartTime: "09:00",
				EndTime:   "12:00",
			},
			wantError: true,
			wantField: "Date",
		},
		{
			name: "malformed clock value",
			schedule: &model.Schedule{
				Date:      "2030-06-01",
				StartTime: "9am",
				EndTime:   "12:00",
			},
			wantError: true,
			wantField: "StartTime",
		},
		{
			name: "hour out of range",
			schedule: &model.Schedule{
				Date:      "2030-06-01",
				StartTime: "25:00",
				EndTime:   "26:00",
			},
			wantError: true,
			wantField: "StartTime",
		},
		{
			name: "dash instead of colon",
			schedule: &model.Schedule{
				Date:      "2030-06-01",
				StartTime: "09-00",
				EndTime:   "12:00",
			},
			wantError: true,
			wantField: "StartTime",
		},
		{
			name: "malformed date",
			schedule: &model.Schedule{
				Date:      "01/06/2030",
				StartTime: "09:00",
				EndTime:   "12:00",
			},
			wantError: true,
			wantField: "Date",
		},
		{
			name: "impossible calendar date",
			schedule: &model.Schedule{
				Date:      "2030-02-30",
				StartTime: "09:00",
				EndTime:   "12:00",
			},
			wantError: true,
			wantField: "Date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.schedule)
			if tt.wantError && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
			if tt.wantError && tt.wantField != "" && !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateWindow_RuleOrder(t *testing.T) {
	v := newTestValidator()
	now := time.Date(2030, 6, 15, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name      string
		schedule  *model.Schedule
		wantField string
	}{
		{
			name: "end before start reported first",
			schedule: &model.Schedule{
				Date: "2030-06-01", StartTime: "12:00", EndTime: "09:00",
			},
			wantField: "end_time",
		},
		{
			name: "past date",
			schedule: &model.Schedule{
				Date: "2030-06-01", StartTime: "09:00", EndTime: "12:00",
			},
			wantField: "date",
		},
		{
			name: "today but start already passed",
			schedule: &model.Schedule{
				Date: "2030-06-15", StartTime: "09:00", EndTime: "12:00",
			},
			wantField: "start_time",
		},
		{
			name: "today start equal to now rejected",
			schedule: &model.Schedule{
				Date: "2030-06-15", StartTime: "10:00", EndTime: "12:00",
			},
			wantField: "start_time",
		},
		{
			name: "before working hours",
			schedule: &model.Schedule{
				Date: "2030-06-16", StartTime: "07:00", EndTime: "12:00",
			},
			wantField: "start_time",
		},
		{
			name: "past working hours",
			schedule: &model.Schedule{
				Date: "2030-06-16", StartTime: "16:00", EndTime: "19:00",
			},
			wantField: "start_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateWindow(tt.schedule, now, "09:00", "18:00")
			if err == nil {
				t.Fatal("expected window validation error, got nil")
			}
			ve, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("violated field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidateWindow_Valid(t *testing.T) {
	v := newTestValidator()
	now := time.Date(2030, 6, 15, 10, 0, 0, 0, time.Local)

	tests := []*model.Schedule{
		{Date: "2030-06-16", StartTime: "09:00", EndTime: "18:00"}, // full working day
		{Date: "2030-06-15", StartTime: "10:30", EndTime: "12:00"}, // later today
		{Date: "2030-07-01", StartTime: "17:00", EndTime: "18:00"}, // ends at closing
	}

	for _, sc := range tests {
		if err := v.ValidateWindow(sc, now, "09:00", "18:00"); err != nil {
			t.Errorf("ValidateWindow(%s %s-%s) = %v, want nil", sc.Date, sc.StartTime, sc.EndTime, err)
		}
	}
}
