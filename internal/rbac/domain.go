package rbac

import "time"

// Actions recognised by the convenience helpers. Capabilities remain opaque
// pairs; any other action string (for example ActionApprove) is compared the
// same way.
const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionApprove = "approve"
)

// Protected resources.
const (
	ResourceDashboard      = "dashboard"
	ResourceSurat          = "surat"
	ResourceBayaran        = "bayaran"
	ResourceUsers          = "users"
	ResourceRoles          = "roles"
	ResourcePermissionList = "permissions"
	ResourceAudit          = "audit"
)

// Capability is a granted (resource, action) pair. Two capabilities are the
// same grant iff both fields are equal.
type Capability struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Check is a query compared for exact equality against a capability set.
type Check = Capability

// String renders the pair as "resource:action".
func (c Capability) String() string {
	return c.Resource + ":" + c.Action
}

// Role is a named bundle of capabilities.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission is a stored capability row.
type Permission struct {
	ID          int64  `json:"id"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Capability returns the pair named by the permission row.
func (p Permission) Capability() Capability {
	return Capability{Resource: p.Resource, Action: p.Action}
}

// Subject is the authorization view of a signed-in principal, carried in the
// session for the lifetime of the login.
type Subject struct {
	UserID       int64        `json:"user_id"`
	Username     string       `json:"username"`
	RoleName     string       `json:"role_name,omitempty"`
	Capabilities []Capability `json:"capabilities,omitempty"`
	// MustChangePassword is set while the account still holds an issued password.
	MustChangePassword bool `json:"must_change_password,omitempty"`
}

// DefaultCapabilities lists every capability the application checks, with
// the description shown to administrators.
func DefaultCapabilities() []Permission {
	return []Permission{
		{Resource: ResourceDashboard, Action: ActionView, Description: "Lihat papan pemuka"},
		{Resource: ResourceSurat, Action: ActionView, Description: "Lihat daftar surat"},
		{Resource: ResourceSurat, Action: ActionCreate, Description: "Daftar surat baharu"},
		{Resource: ResourceSurat, Action: ActionEdit, Description: "Kemas kini surat"},
		{Resource: ResourceSurat, Action: ActionDelete, Description: "Padam surat"},
		{Resource: ResourceBayaran, Action: ActionView, Description: "Lihat bayaran kontraktor"},
		{Resource: ResourceBayaran, Action: ActionCreate, Description: "Rekod bayaran baharu"},
		{Resource: ResourceBayaran, Action: ActionEdit, Description: "Kemas kini bayaran"},
		{Resource: ResourceBayaran, Action: ActionApprove, Description: "Lulus dan jelaskan bayaran"},
		{Resource: ResourceBayaran, Action: ActionDelete, Description: "Padam bayaran"},
		{Resource: ResourceUsers, Action: ActionView, Description: "Lihat pengguna"},
		{Resource: ResourceUsers, Action: ActionCreate, Description: "Cipta pengguna"},
		{Resource: ResourceUsers, Action: ActionEdit, Description: "Kemas kini pengguna"},
		{Resource: ResourceUsers, Action: ActionDelete, Description: "Padam pengguna"},
		{Resource: ResourceRoles, Action: ActionView, Description: "Lihat peranan"},
		{Resource: ResourceRoles, Action: ActionEdit, Description: "Urus peranan"},
		{Resource: ResourceRoles, Action: ActionDelete, Description: "Padam peranan"},
		{Resource: ResourcePermissionList, Action: ActionView, Description: "Lihat kebenaran"},
		{Resource: ResourceAudit, Action: ActionView, Description: "Lihat jejak audit"},
	}
}
