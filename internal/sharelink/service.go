package sharelink

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Service issues and resolves share links.
type Service struct {
	repo       RepositoryPort
	defaultTTL time.Duration
	audit      shared.AuditRecorder
	logger     *slog.Logger
	validator  *validator.Validate
	now        func() time.Time
}

// NewService builds Service instance. defaultTTL is clamped to MaxTTL.
func NewService(repo RepositoryPort, defaultTTL time.Duration, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if defaultTTL <= 0 || defaultTTL > MaxTTL {
		defaultTTL = MaxTTL
	}
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		defaultTTL: defaultTTL,
		audit:      audit,
		logger:     logger,
		validator:  validator.New(),
		now:        time.Now,
	}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create issues a link to one record.
func (s *Service) Create(ctx context.Context, actorID int64, input CreateInput) (Link, error) {
	input.Resource = strings.ToLower(strings.TrimSpace(input.Resource))
	if err := s.validator.Struct(input); err != nil {
		return Link{}, err
	}
	ttl := s.defaultTTL
	if input.TTLHours > 0 {
		ttl = time.Duration(input.TTLHours) * time.Hour
	}
	link, err := s.repo.Insert(ctx, Link{
		Token:      uuid.New(),
		Resource:   input.Resource,
		ResourceID: input.ResourceID,
		ExpiresAt:  s.now().Add(ttl).UTC(),
		CreatedBy:  actorID,
	})
	if err != nil {
		return Link{}, err
	}
	s.audited(ctx, actorID, "sharelink.created", link, nil)
	return link, nil
}

// Resolve returns an active link. Malformed and unknown tokens yield
// ErrNotFound; revoked or expired ones yield ErrExpired.
func (s *Service) Resolve(ctx context.Context, token string) (Link, error) {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return Link{}, ErrNotFound
	}
	link, err := s.repo.Get(ctx, id)
	if err != nil {
		return Link{}, err
	}
	if !link.Active(s.now()) {
		return Link{}, ErrExpired
	}
	return link, nil
}

// Lookup returns a link regardless of its state.
func (s *Service) Lookup(ctx context.Context, token string) (Link, error) {
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return Link{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Revoke disables a link immediately.
func (s *Service) Revoke(ctx context.Context, actorID int64, link Link) error {
	if err := s.repo.Revoke(ctx, link.Token, s.now().UTC()); err != nil {
		return err
	}
	s.audited(ctx, actorID, "sharelink.revoked", link, nil)
	return nil
}

// PurgeExpired removes links that stopped working before the cutoff.
func (s *Service) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.PurgeExpired(ctx, before)
}

func (s *Service) audited(ctx context.Context, actorID int64, action string, link Link, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["resource"] = link.Resource
	meta["resource_id"] = strconv.FormatInt(link.ResourceID, 10)
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "share_link",
		EntityID: link.Token.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit record", slog.String("action", action), slog.Any("error", err))
	}
}
