package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrSlotTaken surfaces the unique index violation on
	// (doctor_id, schedule_id, appointment_time).
	ErrSlotTaken = errors.New("slot already booked")
)
