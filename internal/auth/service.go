package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Login and migration outcomes reported to Metrics.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Metrics receives authentication counters.
type Metrics interface {
	ObserveLogin(result string)
	ObservePasswordMigration(result string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLogin(string)             {}
func (nopMetrics) ObservePasswordMigration(string) {}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	caps    CapabilityStore
	hasher  PasswordHasher
	logger  *slog.Logger
	audit   shared.AuditRecorder
	metrics Metrics
	now     func() time.Time

	tokens        *ResetTokens
	mailer        Mailer
	resetLinkBase string

	refresh singleflight.Group
	decoy   func() string
}

// NewService constructs a new Service.
func NewService(repo Repository, caps CapabilityStore, hasher PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		caps:    caps,
		hasher:  hasher,
		logger:  logger,
		audit:   shared.NopAudit{},
		metrics: nopMetrics{},
		now:     time.Now,
		decoy: sync.OnceValue(func() string {
			digest, _ := hasher.Hash("pejabat-decoy-credential")
			return digest
		}),
	}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithAudit sets the audit recorder.
func (s *Service) WithAudit(audit shared.AuditRecorder) {
	if audit != nil {
		s.audit = audit
	}
}

// WithMetrics sets the metrics sink.
func (s *Service) WithMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// WithPasswordReset enables the e-mail reset flow. linkBase is the page the
// token is appended to as ?token=.
func (s *Service) WithPasswordReset(tokens *ResetTokens, mailer Mailer, linkBase string) {
	s.tokens = tokens
	s.mailer = mailer
	s.resetLinkBase = linkBase
}

// Verify checks identity and secret against the stored credential. A
// plaintext credential that matches is upgraded to a digest; a failed
// upgrade is logged and does not fail the login.
func (s *Service) Verify(ctx context.Context, identity, secret string) (*User, error) {
	if identity == "" || secret == "" {
		return nil, ErrMissingCredentials
	}
	user, err := s.lookup(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.burnCompare(secret)
		}
		return nil, err
	}
	if !user.IsActive {
		s.burnCompare(secret)
		return nil, ErrInvalidCredentials
	}

	needsMigration := false
	switch user.Password.Kind {
	case CredentialHashed:
		if err := s.hasher.Compare(user.Password.Value, secret); err != nil {
			return nil, ErrInvalidCredentials
		}
	default:
		if subtle.ConstantTimeCompare([]byte(user.Password.Value), []byte(secret)) != 1 {
			return nil, ErrInvalidCredentials
		}
		needsMigration = true
	}

	if needsMigration {
		s.migrateCredential(ctx, user.Username, secret)
	}
	user.Password = Credential{}
	return user, nil
}

// burnCompare spends one hash comparison so unknown and inactive accounts
// answer in about the same time as a wrong password.
func (s *Service) burnCompare(secret string) {
	if digest := s.decoy(); digest != "" {
		_ = s.hasher.Compare(digest, secret)
	}
}

func (s *Service) migrateCredential(ctx context.Context, username, secret string) {
	digest, err := s.hasher.Hash(secret)
	if err == nil {
		err = s.repo.UpdateCredential(ctx, username, digest)
	}
	if err != nil {
		s.metrics.ObservePasswordMigration(ResultError)
		s.logger.WarnContext(ctx, "credential migration",
			slog.String("username", username),
			slog.Any("error", errors.Join(ErrMigrationWriteFailed, err)))
		return
	}
	s.metrics.ObservePasswordMigration(ResultSuccess)
	s.logger.InfoContext(ctx, "credential migrated", slog.String("username", username))
}

// Login verifies the credentials and resolves the capability set.
func (s *Service) Login(ctx context.Context, identity, secret string) (*LoginResult, error) {
	user, err := s.Verify(ctx, identity, secret)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrMissingCredentials):
			s.metrics.ObserveLogin(ResultInvalid)
		default:
			s.metrics.ObserveLogin(ResultError)
		}
		return nil, err
	}
	result, err := s.resolve(ctx, user)
	if err != nil {
		s.metrics.ObserveLogin(ResultError)
		return nil, err
	}
	s.metrics.ObserveLogin(ResultSuccess)
	return result, nil
}

// Profile returns the caller-facing view of identity.
func (s *Service) Profile(ctx context.Context, identity string) (*LoginResult, error) {
	user, err := s.lookup(ctx, identity)
	if err != nil {
		return nil, err
	}
	user.Password = Credential{}
	return s.resolve(ctx, user)
}

// RefreshPermissions re-reads the role and capability set of identity.
// Concurrent refreshes for the same identity share one store round trip.
func (s *Service) RefreshPermissions(ctx context.Context, identity string) (rbac.Subject, error) {
	if identity == "" {
		return rbac.Subject{}, ErrMissingCredentials
	}
	v, err, _ := s.refresh.Do(identity, func() (any, error) {
		result, err := s.Profile(ctx, identity)
		if err != nil {
			return nil, err
		}
		return result.Subject(), nil
	})
	if err != nil {
		return rbac.Subject{}, err
	}
	return v.(rbac.Subject), nil
}

// ChangePassword replaces the password of identity. When firstTime is set
// the current password is not checked; callers decide who may use it.
func (s *Service) ChangePassword(ctx context.Context, identity, current, next string, firstTime bool) error {
	if identity == "" || next == "" {
		return ErrMissingCredentials
	}
	if err := ValidateNewPassword(identity, next); err != nil {
		return err
	}

	var user *User
	if firstTime {
		u, err := s.lookup(ctx, identity)
		if err != nil {
			return err
		}
		if !u.IsActive {
			return ErrInvalidCredentials
		}
		user = u
	} else {
		u, err := s.Verify(ctx, identity, current)
		if err != nil {
			if errors.Is(err, ErrMissingCredentials) {
				return ErrInvalidCredentials
			}
			return err
		}
		user = u
	}

	if err := s.storeNewPassword(ctx, user.Username, next); err != nil {
		return err
	}
	s.record(ctx, user.ID, "auth.password_changed", user.Username, map[string]any{"first_time": firstTime})
	return nil
}

// ResetToUsername sets the password of identity to the username itself and
// forces a change at next login.
func (s *Service) ResetToUsername(ctx context.Context, actorID int64, identity string) error {
	if identity == "" {
		return ErrMissingCredentials
	}
	digest, err := s.hasher.Hash(identity)
	if err != nil {
		return err
	}
	err = s.repo.UpdatePassword(ctx, identity, PasswordChange{
		Digest:             digest,
		MustChangePassword: true,
		PasswordMigrated:   false,
		ChangedAt:          nil,
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("%w: reset password: %w", ErrStoreUnavailable, err)
	}
	s.record(ctx, actorID, "auth.password_reset", identity, nil)
	return nil
}

// RequestPasswordReset mails a reset link to the account owning email.
// Unknown or inactive addresses succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingCredentials
	}
	if s.tokens == nil || s.mailer == nil {
		return errors.New("auth: password reset not configured")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: find by email: %w", ErrStoreUnavailable, err)
	}
	if !user.IsActive {
		return nil
	}
	token, err := s.tokens.Issue(user.Username, user.LastPasswordChange)
	if err != nil {
		return err
	}
	link := s.resetLinkBase + "?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("Salam %s,\n\nKlik pautan berikut untuk menetapkan semula kata laluan anda:\n%s\n\nAbaikan e-mel ini jika anda tidak membuat permintaan.\n",
		displayName(user), link)
	to := email
	if user.Email != nil && *user.Email != "" {
		to = *user.Email
	}
	if err := s.mailer.Send(ctx, to, "Tetapan semula kata laluan", body); err != nil {
		return err
	}
	s.record(ctx, user.ID, "auth.password_reset_requested", user.Username, nil)
	return nil
}

// ResetPasswordWithToken sets a new password using a mailed reset token.
func (s *Service) ResetPasswordWithToken(ctx context.Context, token, next string) error {
	if s.tokens == nil {
		return ErrInvalidResetToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	if next == "" {
		return ErrMissingCredentials
	}
	if err := ValidateNewPassword(claims.Username, next); err != nil {
		return err
	}
	user, err := s.lookup(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !user.IsActive || passwordChangeStamp(user.LastPasswordChange) != claims.PasswordChangedAt {
		return ErrInvalidResetToken
	}
	if err := s.storeNewPassword(ctx, user.Username, next); err != nil {
		return err
	}
	s.record(ctx, user.ID, "auth.password_reset_completed", user.Username, nil)
	return nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func (s *Service) storeNewPassword(ctx context.Context, username, next string) error {
	digest, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	err = s.repo.UpdatePassword(ctx, username, PasswordChange{
		Digest:             digest,
		MustChangePassword: false,
		PasswordMigrated:   true,
		ChangedAt:          &now,
	})
	if err != nil {
		return fmt.Errorf("%w: update password: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, identity string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, identity)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: find user: %w", ErrStoreUnavailable, err)
	}
	return user, nil
}

func (s *Service) resolve(ctx context.Context, user *User) (*LoginResult, error) {
	var caps []rbac.Capability
	if user.RoleID != nil && s.caps != nil {
		found, err := s.caps.FindRoleCapabilities(ctx, *user.RoleID)
		if err != nil {
			return nil, fmt.Errorf("%w: role capabilities: %w", ErrStoreUnavailable, err)
		}
		caps = found
	}
	return newLoginResult(user, caps), nil
}

func (s *Service) record(ctx context.Context, actorID int64, action, username string, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: username,
		Meta:     meta,
		At:       s.now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func displayName(u *User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
