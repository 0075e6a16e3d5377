package model

type RegisterRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2,max=255"`
	MobileNumber string `json:"mobile_number" validate:"required,e164"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	Role         string `json:"role,omitempty" validate:"omitempty,oneof=patient doctor admin"`
	Address      string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type LoginRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// TokenPair is returned from register, login and refresh. Role and
// full name ride along in the body as well as inside the JWT claims.
type TokenPair struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}
