package users

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

var (
	ErrUserNotFound      = errors.New("pengguna tidak dijumpai")
	ErrDuplicateUsername = errors.New("nama pengguna telah digunakan")
	ErrDuplicateEmail    = errors.New("e-mel telah digunakan")
	ErrInvalidUsername   = errors.New("nama pengguna mesti 3-50 aksara huruf kecil, digit, titik, sengkang atau garis bawah")
	ErrUnknownRole       = errors.New("peranan tidak wujud")
	ErrSelfDelete        = errors.New("tidak boleh memadam akaun sendiri")
)

// usernameTag names the validator rule for account usernames.
const usernameTag = "username"

// validUsername accepts 3 to 50 lowercase letters, digits, dots, dashes or underscores.
func validUsername(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if len(name) < 3 || len(name) > 50 {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// User is the administrative view of an account. It has no credential field.
type User struct {
	ID                 int64      `json:"id"`
	Username           string     `json:"username"`
	Name               string     `json:"name"`
	Email              *string    `json:"email,omitempty"`
	RoleID             *int64     `json:"role_id,omitempty"`
	RoleName           string     `json:"role_name,omitempty"`
	IsActive           bool       `json:"is_active"`
	MustChangePassword bool       `json:"must_change_password"`
	PasswordMigrated   bool       `json:"is_password_changed"`
	LastPasswordChange *time.Time `json:"last_password_change,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateUserInput provisions an account.
type CreateUserInput struct {
	Username string  `json:"username" validate:"required,username"`
	Name     string  `json:"name" validate:"required,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	RoleID   *int64  `json:"role_id" validate:"omitempty,gt=0"`
}

// UpdateProfileInput changes profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	RoleID   *int64  `json:"role_id" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
}

// ListFilters narrows a user listing.
type ListFilters struct {
	Search string
	Page   shared.PageRequest
}
