package roles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

type memoryRoleRepo struct {
	roles  map[int64]Role
	caps   map[int64][]rbac.Capability
	known  map[rbac.Capability]bool
	inUse  map[int64]bool
	nextID int64
}

func newMemoryRoleRepo() *memoryRoleRepo {
	known := map[rbac.Capability]bool{}
	for _, p := range rbac.DefaultCapabilities() {
		known[p.Capability()] = true
	}
	return &memoryRoleRepo{
		roles: map[int64]Role{},
		caps:  map[int64][]rbac.Capability{},
		known: known,
		inUse: map[int64]bool{},
	}
}

func (r *memoryRoleRepo) ListRoles(context.Context) ([]Role, error) {
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memoryRoleRepo) GetRole(_ context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (r *memoryRoleRepo) CreateRole(_ context.Context, input RoleInput) (Role, error) {
	for _, role := range r.roles {
		if role.Name == input.Name {
			return Role{}, ErrDuplicateRole
		}
	}
	r.nextID++
	role := Role{ID: r.nextID, Name: input.Name, Description: input.Description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRoleRepo) UpdateRole(_ context.Context, id int64, input RoleInput) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	role.Name = input.Name
	role.Description = input.Description
	r.roles[id] = role
	return role, nil
}

func (r *memoryRoleRepo) DeleteRole(_ context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return ErrRoleNotFound
	}
	if r.inUse[id] {
		return ErrRoleInUse
	}
	delete(r.roles, id)
	return nil
}

func (r *memoryRoleRepo) RoleCapabilities(_ context.Context, id int64) ([]rbac.Capability, error) {
	return r.caps[id], nil
}

func (r *memoryRoleRepo) ReplacePermissions(_ context.Context, id int64, caps []rbac.Capability) error {
	if _, ok := r.roles[id]; !ok {
		return ErrRoleNotFound
	}
	for _, c := range caps {
		if !r.known[c] {
			return ErrUnknownPermission
		}
	}
	r.caps[id] = append([]rbac.Capability(nil), caps...)
	return nil
}

type auditSpy struct{ actions []string }

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

func TestCreateRoleNormalisesAndValidates(t *testing.T) {
	repo := newMemoryRoleRepo()
	audit := &auditSpy{}
	svc := NewService(repo, audit, nil)

	role, err := svc.CreateRole(context.Background(), 1, RoleInput{Name: "  Kerani ", Description: "Pendaftaran surat"})
	require.NoError(t, err)
	assert.Equal(t, "kerani", role.Name)
	assert.Equal(t, []string{"roles.created"}, audit.actions)

	_, err = svc.CreateRole(context.Background(), 1, RoleInput{Name: "KERANI"})
	assert.ErrorIs(t, err, ErrDuplicateRole)

	_, err = svc.CreateRole(context.Background(), 1, RoleInput{Name: "x"})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestSetPermissionsReplacesSet(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil, nil)
	role, err := svc.CreateRole(context.Background(), 1, RoleInput{Name: "kewangan"})
	require.NoError(t, err)

	caps, err := svc.SetPermissions(context.Background(), 1, role.ID, []rbac.Capability{
		{Resource: "bayaran", Action: "view"},
		{Resource: " bayaran ", Action: "view"},
		{Resource: "bayaran", Action: "approve"},
	})
	require.NoError(t, err)
	assert.Len(t, caps, 2)

	got, err := svc.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	assert.True(t, rbac.CanView(got.Permissions, "bayaran"))
	assert.False(t, rbac.CanView(got.Permissions, "surat"))

	_, err = svc.SetPermissions(context.Background(), 1, role.ID, []rbac.Capability{{Resource: "gudang", Action: "view"}})
	assert.ErrorIs(t, err, ErrUnknownPermission)
	_, err = svc.SetPermissions(context.Background(), 1, role.ID, []rbac.Capability{{Resource: "bayaran"}})
	assert.ErrorIs(t, err, ErrUnknownPermission)

	caps, err = svc.SetPermissions(context.Background(), 1, role.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, caps)
	got, err = svc.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Permissions)
	assert.Empty(t, got.Permissions)
}

func TestDeleteRoleInUse(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil, nil)
	role, err := svc.CreateRole(context.Background(), 1, RoleInput{Name: "pentadbir"})
	require.NoError(t, err)

	repo.inUse[role.ID] = true
	assert.ErrorIs(t, svc.DeleteRole(context.Background(), 1, role.ID), ErrRoleInUse)

	repo.inUse[role.ID] = false
	require.NoError(t, svc.DeleteRole(context.Background(), 1, role.ID))
	assert.ErrorIs(t, svc.DeleteRole(context.Background(), 1, role.ID), ErrRoleNotFound)
}
