package roles

import (
	"errors"
	"time"

	"github.com/sistem-pejabat/pejabat/internal/rbac"
)

var (
	ErrRoleNotFound      = errors.New("peranan tidak dijumpai")
	ErrDuplicateRole     = errors.New("nama peranan telah wujud")
	ErrRoleInUse         = errors.New("peranan masih digunakan oleh pengguna")
	ErrUnknownPermission = errors.New("kebenaran tidak dikenali")
)

// Role is a named bundle of capabilities.
type Role struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	UserCount   int               `json:"user_count"`
	Permissions []rbac.Capability `json:"permissions,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// RoleInput carries create and update fields.
type RoleInput struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=200"`
}

// PermissionsInput replaces the capability set of a role.
type PermissionsInput struct {
	Permissions []rbac.Capability `json:"permissions"`
}
