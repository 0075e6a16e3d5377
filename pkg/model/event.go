package model

import "time"

// EventTypeAppointmentBooked identifies booking events on the wire.
const EventTypeAppointmentBooked = "appointment.booked"

// AppointmentBookedEvent is published after a booking is persisted and
// consumed by the reminders worker.
type AppointmentBookedEvent struct {
	AppointmentID   string    `json:"appointment_id"`
	DoctorID        string    `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name,omitempty"`
	ScheduleID      string    `json:"schedule_id"`
	Date            string    `json:"date"`
	AppointmentTime string    `json:"appointment_time"`
	BookedAt        time.Time `json:"booked_at"`
}
