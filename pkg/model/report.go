package model

// DoctorAppointmentCount is one row of the per-doctor appointment
// aggregation.
type DoctorAppointmentCount struct {
	DoctorID     string `json:"doctor_id" bson:"_id"`
	DoctorName   string `json:"doctor_name,omitempty" bson:"doctor_name,omitempty"`
	Appointments int64  `json:"appointments" bson:"appointments"`
}

// BookedAppointmentDetail is one row of the admin booking report, with
// doctor and patient names resolved.
type BookedAppointmentDetail struct {
	AppointmentID   string `json:"appointment_id" bson:"_id"`
	DoctorID        string `json:"doctor_id" bson:"doctor_id"`
	DoctorName      string `json:"doctor_name,omitempty" bson:"doctor_name,omitempty"`
	PatientID       string `json:"patient_id" bson:"patient_id"`
	PatientName     string `json:"patient_name,omitempty" bson:"patient_name,omitempty"`
	ScheduleID      string `json:"schedule_id" bson:"schedule_id"`
	AppointmentTime string `json:"appointment_time" bson:"appointment_time"`
	Status          string `json:"status" bson:"status"`
}

// AdminReport is the clinic-wide activity summary served to admins.
// Revenue counts the consultation fee of every completed appointment.
type AdminReport struct {
	TotalAppointments     int64                     `json:"total_appointments"`
	AppointmentsPerDoctor []DoctorAppointmentCount  `json:"appointments_per_doctor"`
	TotalRevenue          int64                     `json:"total_revenue"`
	BookedAppointments    []BookedAppointmentDetail `json:"booked_appointments"`
}
