package auth

import (
	"time"

	"github.com/sistem-pejabat/pejabat/internal/rbac"
)

// User is an account as stored, including its credential.
type User struct {
	ID                 int64
	Username           string
	Password           Credential `json:"-"`
	Name               string
	Email              *string
	RoleID             *int64
	RoleName           string
	PasswordMigrated   bool
	MustChangePassword bool
	LastPasswordChange *time.Time
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PasswordChange is the full set of fields written when a password is replaced.
type PasswordChange struct {
	Digest             string
	MustChangePassword bool
	PasswordMigrated   bool
	ChangedAt          *time.Time
}

// LoginResult is what a caller sees after signing in. It carries no credential.
type LoginResult struct {
	UserID             int64             `json:"id"`
	Username           string            `json:"username"`
	Name               string            `json:"name"`
	Email              *string           `json:"email,omitempty"`
	RoleID             *int64            `json:"role_id,omitempty"`
	RoleName           string            `json:"role_name,omitempty"`
	Permissions        []rbac.Capability `json:"permissions"`
	MustChangePassword bool              `json:"must_change_password"`
	IsPasswordChanged  bool              `json:"is_password_changed"`
	LastPasswordChange *time.Time        `json:"last_password_change,omitempty"`
}

// Subject converts the result into the authorization snapshot kept in the session.
func (r LoginResult) Subject() rbac.Subject {
	return rbac.Subject{
		UserID:             r.UserID,
		Username:           r.Username,
		RoleName:           r.RoleName,
		Capabilities:       r.Permissions,
		MustChangePassword: r.MustChangePassword,
	}
}

func newLoginResult(user *User, caps []rbac.Capability) *LoginResult {
	if caps == nil {
		caps = []rbac.Capability{}
	}
	return &LoginResult{
		UserID:             user.ID,
		Username:           user.Username,
		Name:               user.Name,
		Email:              user.Email,
		RoleID:             user.RoleID,
		RoleName:           user.RoleName,
		Permissions:        caps,
		MustChangePassword: user.MustChangePassword,
		IsPasswordChanged:  user.PasswordMigrated,
		LastPasswordChange: user.LastPasswordChange,
	}
}
