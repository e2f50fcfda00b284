package rbac

import "strings"

// LegacyRoles maps a resource to the role names allowed to use it before
// capability sets existed. An entry grants every action on its resource.
type LegacyRoles map[string][]string

// DefaultLegacyRoles reproduces the fixed role lists of the old navigation.
func DefaultLegacyRoles() LegacyRoles {
	return LegacyRoles{
		ResourceDashboard:      {"admin", "pentadbir", "kerani", "kewangan", "pengguna"},
		ResourceSurat:          {"admin", "pentadbir", "kerani"},
		ResourceBayaran:        {"admin", "pentadbir", "kewangan"},
		ResourceUsers:          {"admin"},
		ResourceRoles:          {"admin"},
		ResourcePermissionList: {"admin"},
		ResourceAudit:          {"admin"},
	}
}

// Allows reports whether roleName is listed for resource.
func (l LegacyRoles) Allows(roleName, resource string) bool {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return false
	}
	for _, allowed := range l[resource] {
		if strings.EqualFold(allowed, roleName) {
			return true
		}
	}
	return false
}

// Authorizer applies the precedence rule: a non-empty capability set is the
// only source of truth; the legacy table is consulted only when the subject
// has no capabilities at all. The two are never combined.
type Authorizer struct {
	Legacy LegacyRoles
}

// NewAuthorizer builds an Authorizer over the given legacy table.
func NewAuthorizer(legacy LegacyRoles) Authorizer {
	return Authorizer{Legacy: legacy}
}

// Allowed decides a single check for subject.
func (a Authorizer) Allowed(subject Subject, check Check) bool {
	if len(subject.Capabilities) > 0 {
		return HasPermission(subject.Capabilities, check)
	}
	return a.Legacy.Allows(subject.RoleName, check.Resource)
}

// AllowedAny is the HasAny counterpart of Allowed.
func (a Authorizer) AllowedAny(subject Subject, checks []Check) bool {
	if len(subject.Capabilities) > 0 {
		return HasAny(subject.Capabilities, checks)
	}
	for _, check := range checks {
		if a.Legacy.Allows(subject.RoleName, check.Resource) {
			return true
		}
	}
	return false
}

// AllowedAll is the HasAll counterpart of Allowed.
func (a Authorizer) AllowedAll(subject Subject, checks []Check) bool {
	if len(subject.Capabilities) > 0 {
		return HasAll(subject.Capabilities, checks)
	}
	for _, check := range checks {
		if !a.Legacy.Allows(subject.RoleName, check.Resource) {
			return false
		}
	}
	return true
}
