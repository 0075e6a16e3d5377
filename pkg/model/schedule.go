package model

import "time"

// Schedule is a doctor-declared availability window on a single date.
// Dates are YYYY-MM-DD, clock values are HH:MM in the server-local day.
type Schedule struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DoctorID  string    `json:"doctor_id,omitempty" bson:"doctor_id" validate:"omitempty,mongodb"`
	Date      string    `json:"date" bson:"date" validate:"required,datestamp"`
	StartTime string    `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime   string    `json:"end_time" bson:"end_time" validate:"required,clock"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
}

type ScheduleUpdate struct {
	Date      string `json:"date,omitempty" validate:"omitempty,datestamp"`
	StartTime string `json:"start_time,omitempty" validate:"omitempty,clock"`
	EndTime   string `json:"end_time,omitempty" validate:"omitempty,clock"`
}
