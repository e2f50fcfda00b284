package users

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sistem-pejabat/pejabat/internal/auth"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// PasswordResetter forces an account back to its username as password.
type PasswordResetter interface {
	ResetToUsername(ctx context.Context, actorID int64, identity string) error
}

// Service handles user administration.
type Service struct {
	repo      RepositoryPort
	hasher    auth.PasswordHasher
	resetter  PasswordResetter
	audit     shared.AuditRecorder
	logger    *slog.Logger
	validator *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, hasher auth.PasswordHasher, resetter PasswordResetter, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	_ = v.RegisterValidation(usernameTag, validUsername)
	return &Service{repo: repo, hasher: hasher, resetter: resetter, audit: audit, logger: logger, validator: v}
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, filters ListFilters) ([]User, shared.Pagination, error) {
	users, total, err := s.repo.ListUsers(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(filters.Page.Page, filters.Page.PerPage, total), nil
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser provisions an account whose initial password is its username.
// The account must change the password at first login.
func (s *Service) CreateUser(ctx context.Context, actorID int64, input CreateUserInput) (User, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Name = strings.TrimSpace(input.Name)
	input.Email = trimOptional(input.Email)
	if err := s.validator.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Tag() == usernameTag {
			return User{}, ErrInvalidUsername
		}
		return User{}, err
	}
	digest, err := s.hasher.Hash(input.Username)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, input, digest)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "users.created", user.ID, map[string]any{"username": user.Username})
	return user, nil
}

// UpdateProfile changes name, e-mail, role or active flag.
func (s *Service) UpdateProfile(ctx context.Context, actorID, id int64, input UpdateProfileInput) (User, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	input.Email = trimOptional(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return User{}, err
	}
	user, err := s.repo.UpdateProfile(ctx, id, input)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "users.updated", user.ID, nil)
	return user, nil
}

// DeleteUser removes an account other than the caller's own.
func (s *Service) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfDelete
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "users.deleted", id, nil)
	return nil
}

// ResetPassword sets the password of user id back to its username.
func (s *Service) ResetPassword(ctx context.Context, actorID, id int64) error {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	return s.resetter.ResetToUsername(ctx, actorID, user.Username)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
