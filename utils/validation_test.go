package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/staff-portal/models"
)

func validCreateUserRequest() models.CreateUserRequest {
	return models.CreateUserRequest{
		FirstName:    "Kamala",
		LastName:     "Fernando",
		Dob:          time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		NIC:          "901030123V",
		Gender:       "female",
		EID:          "EMP-0042",
		Email:        "kamala@school.lk",
		MobileNumber: "0771234567",
		StreetNumber: "12A",
		City:         "Kandy",
		Province:     "Central",
		JobTitle:     "Teacher",
		WorkAddress:  "Main Street, Kandy",
		SchoolName:   "Kandy Central College",
		UserRole:     models.RolePublicUser,
		Status:       models.StatusPending,
		Password:     "s3cret-pass",
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CreateUserRequest)
		field  string
		msg    string
	}{
		{name: "valid request", mutate: func(*models.CreateUserRequest) {}},
		{
			name:   "first name too short",
			mutate: func(r *models.CreateUserRequest) { r.FirstName = "K" },
			field:  "firstName",
			msg:    "firstName must be at least 2 characters",
		},
		{
			name:   "last name too long",
			mutate: func(r *models.CreateUserRequest) { r.LastName = "abcdefghijklmnopqrstuvwxyz" },
			field:  "lastName",
			msg:    "lastName must be at most 25 characters",
		},
		{
			name:   "invalid email",
			mutate: func(r *models.CreateUserRequest) { r.Email = "not-an-email" },
			field:  "email",
			msg:    "email must be a valid email",
		},
		{
			name:   "mobile number must be ten characters",
			mutate: func(r *models.CreateUserRequest) { r.MobileNumber = "07712" },
			field:  "mobileNumber",
			msg:    "mobileNumber must be exactly 10 characters",
		},
		{
			name:   "unknown role",
			mutate: func(r *models.CreateUserRequest) { r.UserRole = "superuser" },
			field:  "userRole",
			msg:    "userRole must be one of: public_user admin_user",
		},
		{
			name:   "unknown status",
			mutate: func(r *models.CreateUserRequest) { r.Status = "archived" },
			field:  "status",
		},
		{
			name:   "missing school name",
			mutate: func(r *models.CreateUserRequest) { r.SchoolName = "" },
			field:  "schoolName",
			msg:    "schoolName is required",
		},
		{
			name:   "missing date of birth",
			mutate: func(r *models.CreateUserRequest) { r.Dob = time.Time{} },
			field:  "dob",
		},
		{
			name:   "password too short",
			mutate: func(r *models.CreateUserRequest) { r.Password = "short" },
			field:  "password",
		},
		{
			name:   "multibyte password over the bcrypt limit",
			mutate: func(r *models.CreateUserRequest) { r.Password = strings.Repeat("é", 40) },
			field:  "password",
			msg:    "password must be at most 72 bytes",
		},
		{
			name:   "multibyte password within the bcrypt limit",
			mutate: func(r *models.CreateUserRequest) { r.Password = strings.Repeat("é", 36) },
		},
		{
			name:   "optional attachments may be empty",
			mutate: func(r *models.CreateUserRequest) { r.ScannedEID = ""; r.LetterOfAppointment = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateUserRequest()
			tt.mutate(&req)

			err := ValidateStruct(&req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			fields := GetValidationFields(err)
			require.Contains(t, fields, tt.field)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, fields[tt.field])
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	req := models.CreateUserRequest{}

	err := ValidateStruct(&req)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "Validation failed", validationErr.Message)
	assert.Contains(t, validationErr.Fields, "firstName")
	assert.Contains(t, validationErr.Fields, "email")
	assert.Contains(t, validationErr.Fields, "password")
	assert.NotContains(t, validationErr.Fields, "scannedEid")
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "test"}))
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, GetValidationFields(assert.AnError))
}
