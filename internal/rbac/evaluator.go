package rbac

// HasPermission reports whether set contains check. A nil or empty set never
// grants anything.
func HasPermission(set []Capability, check Check) bool {
	for _, c := range set {
		if c.Resource == check.Resource && c.Action == check.Action {
			return true
		}
	}
	return false
}

// HasAny reports whether at least one check is granted. No checks means no grant.
func HasAny(set []Capability, checks []Check) bool {
	for _, check := range checks {
		if HasPermission(set, check) {
			return true
		}
	}
	return false
}

// HasAll reports whether every check is granted. No checks is vacuously true.
func HasAll(set []Capability, checks []Check) bool {
	for _, check := range checks {
		if !HasPermission(set, check) {
			return false
		}
	}
	return true
}

// ResourcePermissions returns the members of set naming resource, in set order.
func ResourcePermissions(set []Capability, resource string) []Capability {
	var out []Capability
	for _, c := range set {
		if c.Resource == resource {
			out = append(out, c)
		}
	}
	return out
}

// CanView is HasPermission(set, {resource, view}).
func CanView(set []Capability, resource string) bool {
	return HasPermission(set, Check{Resource: resource, Action: ActionView})
}

// CanCreate is HasPermission(set, {resource, create}).
func CanCreate(set []Capability, resource string) bool {
	return HasPermission(set, Check{Resource: resource, Action: ActionCreate})
}

// CanEdit is HasPermission(set, {resource, edit}).
func CanEdit(set []Capability, resource string) bool {
	return HasPermission(set, Check{Resource: resource, Action: ActionEdit})
}

// CanDelete is HasPermission(set, {resource, delete}).
func CanDelete(set []Capability, resource string) bool {
	return HasPermission(set, Check{Resource: resource, Action: ActionDelete})
}
