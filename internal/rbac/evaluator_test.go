package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func officeSet() []Capability {
	return []Capability{
		{Resource: "surat", Action: "view"},
		{Resource: "surat", Action: "create"},
		{Resource: "bayaran", Action: "view"},
	}
}

func TestHasPermissionExactMatch(t *testing.T) {
	set := officeSet()
	assert.True(t, HasPermission(set, Check{Resource: "surat", Action: "create"}))
	assert.False(t, HasPermission(set, Check{Resource: "bayaran", Action: "delete"}))
	assert.False(t, HasPermission(set, Check{Resource: "Surat", Action: "view"}))
	assert.False(t, HasPermission(set, Check{Resource: "surat", Action: ""}))
}

func TestEmptySetGrantsNothing(t *testing.T) {
	for _, set := range [][]Capability{nil, {}} {
		assert.False(t, HasPermission(set, Check{Resource: "surat", Action: "view"}))
		assert.False(t, CanView(set, "surat"))
		assert.False(t, HasAny(set, []Check{{Resource: "surat", Action: "view"}}))
		assert.Empty(t, ResourcePermissions(set, "surat"))
	}
}

func TestHasAnyAndHasAll(t *testing.T) {
	set := officeSet()

	assert.True(t, HasAny(set, []Check{{Resource: "bayaran", Action: "delete"}, {Resource: "surat", Action: "view"}}))
	assert.False(t, HasAny(set, []Check{{Resource: "bayaran", Action: "delete"}, {Resource: "users", Action: "view"}}))

	assert.True(t, HasAll(set, []Check{{Resource: "surat", Action: "view"}, {Resource: "bayaran", Action: "view"}}))
	assert.False(t, HasAll(set, []Check{{Resource: "surat", Action: "view"}, {Resource: "bayaran", Action: "edit"}}))
}

func TestEmptyCheckList(t *testing.T) {
	set := officeSet()
	assert.True(t, HasAll(set, nil))
	assert.True(t, HasAll(nil, []Check{}))
	assert.False(t, HasAny(set, nil))
	assert.False(t, HasAny(set, []Check{}))
}

func TestAnyAllMatchSingleCheck(t *testing.T) {
	set := officeSet()
	checks := []Check{
		{Resource: "surat", Action: "view"},
		{Resource: "bayaran", Action: "approve"},
	}
	for _, c := range checks {
		single := []Check{c}
		assert.Equal(t, HasPermission(set, c), HasAny(set, single), c.String())
		assert.Equal(t, HasPermission(set, c), HasAll(set, single), c.String())
	}
}

func TestResourcePermissionsKeepsOrder(t *testing.T) {
	got := ResourcePermissions(officeSet(), "surat")
	assert.Equal(t, []Capability{
		{Resource: "surat", Action: "view"},
		{Resource: "surat", Action: "create"},
	}, got)
	assert.Empty(t, ResourcePermissions(officeSet(), "users"))
}

func TestConvenienceHelpers(t *testing.T) {
	set := officeSet()
	assert.True(t, CanView(set, "surat"))
	assert.True(t, CanCreate(set, "surat"))
	assert.False(t, CanEdit(set, "surat"))
	assert.False(t, CanDelete(set, "surat"))
	assert.True(t, CanView(set, "bayaran"))
	assert.False(t, CanCreate(set, "bayaran"))
}

func TestDuplicateCapabilitiesAreHarmless(t *testing.T) {
	set := append(officeSet(), Capability{Resource: "surat", Action: "view"})
	assert.True(t, CanView(set, "surat"))
	assert.Len(t, ResourcePermissions(set, "surat"), 3)
}

func TestBayaranViewSuratEditScenario(t *testing.T) {
	set := []Capability{
		{Resource: "bayaran", Action: "view"},
		{Resource: "surat", Action: "edit"},
	}
	assert.True(t, HasPermission(set, Check{Resource: "bayaran", Action: "view"}))
	assert.False(t, HasPermission(set, Check{Resource: "bayaran", Action: "edit"}))
	assert.True(t, CanEdit(set, "surat"))
	assert.False(t, CanView(set, "surat"))
}
