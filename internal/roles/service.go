package roles

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Service handles role business logic.
type Service struct {
	repo      RepositoryPort
	audit     shared.AuditRecorder
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, validator: validator.New()}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns a role with its capability set.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	caps, err := s.repo.RoleCapabilities(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if caps == nil {
		caps = []rbac.Capability{}
	}
	role.Permissions = caps
	return role, nil
}

// CreateRole validates and stores a new role.
func (s *Service) CreateRole(ctx context.Context, actorID int64, input RoleInput) (Role, error) {
	input = normalise(input)
	if err := s.validator.Struct(input); err != nil {
		return Role{}, err
	}
	role, err := s.repo.CreateRole(ctx, input)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "roles.created", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole changes the name or description of a role.
func (s *Service) UpdateRole(ctx context.Context, actorID, id int64, input RoleInput) (Role, error) {
	input = normalise(input)
	if err := s.validator.Struct(input); err != nil {
		return Role{}, err
	}
	role, err := s.repo.UpdateRole(ctx, id, input)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "roles.updated", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes a role no user is assigned to.
func (s *Service) DeleteRole(ctx context.Context, actorID, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "roles.deleted", id, nil)
	return nil
}

// SetPermissions replaces the capability set of a role. Duplicate pairs are
// collapsed; empty pairs are rejected.
func (s *Service) SetPermissions(ctx context.Context, actorID, id int64, caps []rbac.Capability) ([]rbac.Capability, error) {
	unique := make([]rbac.Capability, 0, len(caps))
	seen := make(map[rbac.Capability]struct{}, len(caps))
	for _, c := range caps {
		c.Resource = strings.TrimSpace(c.Resource)
		c.Action = strings.TrimSpace(c.Action)
		if c.Resource == "" || c.Action == "" {
			return nil, ErrUnknownPermission
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	if err := s.repo.ReplacePermissions(ctx, id, unique); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "roles.permissions_set", id, map[string]any{"count": len(unique)})
	return unique, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func normalise(input RoleInput) RoleInput {
	input.Name = strings.ToLower(strings.TrimSpace(input.Name))
	input.Description = strings.TrimSpace(input.Description)
	return input
}
