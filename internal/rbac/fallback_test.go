package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizerPrefersCapabilities(t *testing.T) {
	auth := NewAuthorizer(DefaultLegacyRoles())
	subject := Subject{
		UserID:       7,
		Username:     "siti",
		RoleName:     "admin",
		Capabilities: []Capability{{Resource: ResourceSurat, Action: ActionView}},
	}

	assert.True(t, auth.Allowed(subject, Check{Resource: ResourceSurat, Action: ActionView}))
	// admin would pass the legacy table, but a non-empty set is authoritative.
	assert.False(t, auth.Allowed(subject, Check{Resource: ResourceUsers, Action: ActionView}))
	assert.False(t, auth.AllowedAny(subject, []Check{{Resource: ResourceBayaran, Action: ActionView}}))
	assert.False(t, auth.AllowedAll(subject, []Check{
		{Resource: ResourceSurat, Action: ActionView},
		{Resource: ResourceRoles, Action: ActionView},
	}))
}

func TestAuthorizerFallsBackToLegacyRoles(t *testing.T) {
	auth := NewAuthorizer(DefaultLegacyRoles())
	kerani := Subject{UserID: 3, Username: "aminah", RoleName: "Kerani"}

	assert.True(t, auth.Allowed(kerani, Check{Resource: ResourceSurat, Action: ActionDelete}))
	assert.False(t, auth.Allowed(kerani, Check{Resource: ResourceBayaran, Action: ActionView}))
	assert.True(t, auth.AllowedAny(kerani, []Check{
		{Resource: ResourceBayaran, Action: ActionView},
		{Resource: ResourceSurat, Action: ActionView},
	}))
	assert.False(t, auth.AllowedAll(kerani, []Check{
		{Resource: ResourceBayaran, Action: ActionView},
		{Resource: ResourceSurat, Action: ActionView},
	}))
}

func TestAuthorizerEmptyChecks(t *testing.T) {
	auth := NewAuthorizer(DefaultLegacyRoles())
	subjects := []Subject{
		{UserID: 1, RoleName: "admin"},
		{UserID: 2, Capabilities: []Capability{{Resource: ResourceSurat, Action: ActionView}}},
	}
	for _, s := range subjects {
		assert.True(t, auth.AllowedAll(s, nil))
		assert.False(t, auth.AllowedAny(s, nil))
	}
}

func TestAuthorizerWithoutRoleOrCapabilities(t *testing.T) {
	auth := NewAuthorizer(DefaultLegacyRoles())
	assert.False(t, auth.Allowed(Subject{UserID: 9}, Check{Resource: ResourceDashboard, Action: ActionView}))
	assert.False(t, auth.Allowed(Subject{UserID: 9, RoleName: "pelawat"}, Check{Resource: ResourceDashboard, Action: ActionView}))
}

func TestLegacyRolesUnknownResource(t *testing.T) {
	assert.False(t, DefaultLegacyRoles().Allows("admin", "gudang"))
}

func TestPermissionListIsAdminOnly(t *testing.T) {
	auth := NewAuthorizer(DefaultLegacyRoles())
	check := Check{Resource: ResourcePermissionList, Action: ActionView}

	assert.True(t, auth.Allowed(Subject{UserID: 1, RoleName: "admin"}, check))
	assert.False(t, auth.Allowed(Subject{UserID: 2, RoleName: "pentadbir"}, check))
	assert.Contains(t, DefaultCapabilities(), Permission{Resource: ResourcePermissionList, Action: ActionView, Description: "Lihat kebenaran"})
	// the resource constant and the evaluator are distinct identifiers
	assert.Empty(t, ResourcePermissions([]Capability{check}, ResourceSurat))
}
