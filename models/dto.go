package models

import "time"

// CreateUserRequest is the payload for creating a user.
// userId, createAt and updatedAt are assigned by the server.
type CreateUserRequest struct {
	FirstName string    `json:"firstName" validate:"required,min=2,max=25"`
	LastName  string    `json:"lastName" validate:"required,min=2,max=25"`
	Dob       time.Time `json:"dob" validate:"required"`
	NIC       string    `json:"nic" validate:"required,min=10,max=12"`
	Gender    string    `json:"gender" validate:"required"`
	EID       string    `json:"eid" validate:"required,min=2,max=25"`

	Email        string `json:"email" validate:"required,email,min=8,max=100"`
	MobileNumber string `json:"mobileNumber" validate:"required,len=10"`
	StreetNumber string `json:"streetNumber" validate:"required,min=2,max=100"`
	City         string `json:"city" validate:"required,min=2,max=50"`
	Province     string `json:"province" validate:"required,min=2,max=50"`

	JobTitle            string `json:"jobTitle" validate:"required"`
	WorkAddress         string `json:"workAddress" validate:"required"`
	ScannedEID          string `json:"scannedEid,omitempty" validate:"omitempty"`
	LetterOfAppointment string `json:"letterOfAppointment,omitempty" validate:"omitempty"`
	SchoolName          string `json:"schoolName" validate:"required"`

	UserRole UserRole   `json:"userRole" validate:"required,oneof=public_user admin_user"`
	Status   UserStatus `json:"status" validate:"required,oneof=active inactive pending"`
	Password string     `json:"password" validate:"required,min=8,max=50,maxbytes=72"`
}

// LoginRequest is the payload for exchanging credentials for an access token
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateStatusRequest is the payload for changing a user's status
type UpdateStatusRequest struct {
	Status UserStatus `json:"status" validate:"required,oneof=active inactive pending"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserView  `json:"user"`
}
