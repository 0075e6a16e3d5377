package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// AllowedStatusUpdates is the restricted transition set for status
// mutations. Pending is the implicit creation status only; it can never
// be set back through an update.
var AllowedStatusUpdates = []string{StatusConfirmed, StatusCancelled, StatusCompleted}

// Appointment is a patient's claim on one 30-minute slot of one
// doctor's schedule. The (doctor_id, schedule_id, appointment_time)
// triple is unique across the collection.
type Appointment struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DoctorID        string    `json:"doctor" bson:"doctor_id" validate:"required,mongodb"`
	PatientID       string    `json:"patient,omitempty" bson:"patient_id" validate:"omitempty,mongodb"`
	ScheduleID      string    `json:"schedule" bson:"schedule_id" validate:"required,mongodb"`
	Date            string    `json:"date,omitempty" bson:"-"`
	AppointmentTime string    `json:"appointment_time" bson:"appointment_time" validate:"required,clock"`
	Notes           string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	Status          string    `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	CreatedAt       time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
}

type AppointmentStatusUpdate struct {
	Status string  `json:"status" validate:"required,oneof=confirmed cancelled completed"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AvailableSlots is the read-only view of the free slots left in one
// schedule.
type AvailableSlots struct {
	DoctorID       string   `json:"doctor_id"`
	ScheduleID     string   `json:"schedule_id"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
}
