package service

import (
	"context"
	"fmt"
	"time"

	"clinicbook/pkg/kafka"
	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"
)

// ReminderService turns booking events into patient reminders. Delivery
// is a log line for now; the handler shape stays the same when a real
// SMS gateway lands behind it.
type ReminderService struct {
	log *logger.Logger
}

func NewReminderService(log *logger.Logger) *ReminderService {
	return &ReminderService{log: log}
}

// HandleBookedEvent is the consumer entry point for the booking topic.
// Unknown event types are acknowledged and skipped so a topic shared
// with future event kinds does not wedge the group.
func (s *ReminderService) HandleBookedEvent(ctx context.Context, msg kafka.Message) error {
	if eventType := msg.GetEventType(); eventType != model.EventTypeAppointmentBooked {
		s.log.Warn("Skipping message with unexpected event type",
			"event_type", eventType,
			"event_id", msg.GetEventID(),
			"topic", msg.Topic,
		)
		return nil
	}

	var event model.AppointmentBookedEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("invalid payload for event %s: %w", msg.GetEventID(), err)
	}

	if event.AppointmentID == "" || event.PatientID == "" {
		return fmt.Errorf("invalid payload for event %s: missing appointment or patient ID", msg.GetEventID())
	}

	s.log.Info("Appointment reminder scheduled",
		"event_id", msg.GetEventID(),
		"appointment_id", event.AppointmentID,
		"patient_id", event.PatientID,
		"patient_name", event.PatientName,
		"doctor_name", event.DoctorName,
		"date", event.Date,
		"appointment_time", event.AppointmentTime,
		"booked_at", event.BookedAt.Format(time.RFC3339),
	)

	return nil
}
