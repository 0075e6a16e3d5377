package model

// Profile representations are a tagged union over the three roles.
// Each variant carries a fixed field set; the service selects the
// variant from the user's role instead of adding and removing fields
// at render time.

type PatientProfile struct {
	User               User          `json:"user"`
	BookedAppointments []Appointment `json:"booked_appointments"`
}

type DoctorProfile struct {
	User         User         `json:"user"`
	DoctorDetail DoctorDetail `json:"doctordetail"`
	Schedules    []*Schedule  `json:"schedules"`
	BookedSlots  []BookedSlot `json:"already_booked"`
}

type AdminProfile struct {
	User User `json:"user"`
}

// BookedSlot is the doctor-facing view of a claimed slot, with the
// patient named.
type BookedSlot struct {
	AppointmentID   string `json:"appointment_id"`
	PatientName     string `json:"patient_name"`
	ScheduleID      string `json:"schedule_id"`
	AppointmentTime string `json:"appointment_time"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
}

type ProfileUpdate struct {
	FullName     string        `json:"full_name,omitempty" validate:"omitempty,min=2,max=255"`
	Email        string        `json:"email,omitempty" validate:"omitempty,email"`
	Address      string        `json:"address,omitempty" validate:"omitempty,max=500"`
	DoctorDetail *DoctorDetail `json:"doctordetail,omitempty"`
}
