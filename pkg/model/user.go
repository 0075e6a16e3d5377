package model

import "time"

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FullName     string    `json:"full_name" bson:"full_name" validate:"required,min=2,max=255"`
	MobileNumber string    `json:"mobile_number" bson:"mobile_number" validate:"required,e164"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role" validate:"required,oneof=patient doctor admin"`
	Address      string    `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=500"`
	Active       bool      `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
}

// DoctorDetail is the practice record attached to every doctor user.
// It is created zero-valued together with the user and filled in later
// through profile updates.
type DoctorDetail struct {
	ID              string    `json:"-" bson:"_id,omitempty"`
	UserID          string    `json:"-" bson:"user_id"`
	LicenseNumber   string    `json:"license_number" bson:"license_number" validate:"omitempty,max=50"`
	ExperienceYears int       `json:"experience_years" bson:"experience_years" validate:"omitempty,min=0"`
	ConsultationFee int       `json:"consultation_fee" bson:"consultation_fee" validate:"omitempty,min=0"`
	Specialization  string    `json:"specialization,omitempty" bson:"specialization,omitempty" validate:"omitempty,max=100"`
	Location        string    `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty,max=255"`
	CreatedAt       time.Time `json:"-" bson:"created_at"`
}

// DoctorListing is one entry of the public doctor directory.
type DoctorListing struct {
	ID              string `json:"id" bson:"_id"`
	FullName        string `json:"full_name" bson:"full_name"`
	Specialization  string `json:"specialization,omitempty" bson:"specialization,omitempty"`
	Location        string `json:"location,omitempty" bson:"location,omitempty"`
	ExperienceYears int    `json:"experience_years" bson:"experience_years"`
	ConsultationFee int    `json:"consultation_fee" bson:"consultation_fee"`
}

// Actor is the authenticated identity performing an operation.
// Every service method that mutates or reads protected state takes
// the actor explicitly; nothing is read from ambient globals.
type Actor struct {
	ID       string
	Role     string
	FullName string
}

func (a Actor) IsPatient() bool { return a.Role == RolePatient }
func (a Actor) IsDoctor() bool  { return a.Role == RoleDoctor }
func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
