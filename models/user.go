package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserCollection is the document collection holding users
const UserCollection = "users"

// UserRole represents the access role of a user
type UserRole string

const (
	RolePublicUser UserRole = "public_user"
	RoleAdminUser  UserRole = "admin_user"
)

// ErrUnknownRole is returned when a role string is not one of the known roles
var ErrUnknownRole = errors.New("unknown user role")

// ParseUserRole converts a string into a UserRole, rejecting unknown values
func ParseUserRole(s string) (UserRole, error) {
	role := UserRole(s)
	if !role.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return role, nil
}

// IsValid reports whether r is one of the known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RolePublicUser, RoleAdminUser:
		return true
	}
	return false
}

func (r UserRole) String() string {
	return string(r)
}

// UserStatus represents the lifecycle state of a user account
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusPending  UserStatus = "pending"
)

// ErrUnknownStatus is returned when a status string is not one of the known statuses
var ErrUnknownStatus = errors.New("unknown user status")

// ParseUserStatus converts a string into a UserStatus, rejecting unknown values
func ParseUserStatus(s string) (UserStatus, error) {
	status := UserStatus(s)
	switch status {
	case StatusActive, StatusInactive, StatusPending:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// User is the persisted staff member document.
// JSON names are the document field names in the users collection.
type User struct {
	UserID string `json:"userId"`

	// Personal information
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Dob       time.Time `json:"dob"`
	NIC       string    `json:"nic"` // National Identification Card number
	Gender    string    `json:"gender"`
	EID       string    `json:"eid"` // Employee / staff ID

	// Contact information
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	StreetNumber string `json:"streetNumber"`
	City         string `json:"city"`
	Province     string `json:"province"`

	// Employment information
	JobTitle            string `json:"jobTitle"`
	WorkAddress         string `json:"workAddress"`
	ScannedEID          string `json:"scannedEid,omitempty"`
	LetterOfAppointment string `json:"letterOfAppointment,omitempty"`
	SchoolName          string `json:"schoolName"`

	UserRole     UserRole   `json:"userRole"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"passwordHash"`

	CreateAt  time.Time  `json:"createAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// NewUser creates a new User from a validated create request and a password hash
func NewUser(req *CreateUserRequest, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		UserID:              uuid.New().String(),
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Dob:                 req.Dob,
		NIC:                 req.NIC,
		Gender:              req.Gender,
		EID:                 req.EID,
		Email:               strings.ToLower(req.Email),
		MobileNumber:        req.MobileNumber,
		StreetNumber:        req.StreetNumber,
		City:                req.City,
		Province:            req.Province,
		JobTitle:            req.JobTitle,
		WorkAddress:         req.WorkAddress,
		ScannedEID:          req.ScannedEID,
		LetterOfAppointment: req.LetterOfAppointment,
		SchoolName:          req.SchoolName,
		UserRole:            req.UserRole,
		Status:              req.Status,
		PasswordHash:        passwordHash,
		CreateAt:            now,
		UpdatedAt:           now,
	}
}

// DisplayName is the name carried in issued tokens
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsActive returns true if the account may sign in
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DeletedAt == nil
}

// View returns the API representation of the user, without credentials
func (u *User) View() UserView {
	return UserView{
		UserID:              u.UserID,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Dob:                 u.Dob,
		NIC:                 u.NIC,
		Gender:              u.Gender,
		EID:                 u.EID,
		Email:               u.Email,
		MobileNumber:        u.MobileNumber,
		StreetNumber:        u.StreetNumber,
		City:                u.City,
		Province:            u.Province,
		JobTitle:            u.JobTitle,
		WorkAddress:         u.WorkAddress,
		ScannedEID:          u.ScannedEID,
		LetterOfAppointment: u.LetterOfAppointment,
		SchoolName:          u.SchoolName,
		UserRole:            u.UserRole,
		Status:              u.Status,
		CreateAt:            u.CreateAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// UserView is the user as returned by the API
type UserView struct {
	UserID              string     `json:"userId"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	Dob                 time.Time  `json:"dob"`
	NIC                 string     `json:"nic"`
	Gender              string     `json:"gender"`
	EID                 string     `json:"eid"`
	Email               string     `json:"email"`
	MobileNumber        string     `json:"mobileNumber"`
	StreetNumber        string     `json:"streetNumber"`
	City                string     `json:"city"`
	Province            string     `json:"province"`
	JobTitle            string     `json:"jobTitle"`
	WorkAddress         string     `json:"workAddress"`
	ScannedEID          string     `json:"scannedEid,omitempty"`
	LetterOfAppointment string     `json:"letterOfAppointment,omitempty"`
	SchoolName          string     `json:"schoolName"`
	UserRole            UserRole   `json:"userRole"`
	Status              UserStatus `json:"status"`
	CreateAt            time.Time  `json:"createAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}
