package bayaran

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

const idempotencyModule = "bayaran"

// IdempotencyPort records client supplied request keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Service handles the contractor payment register.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	audit       shared.AuditRecorder
	logger      *slog.Logger
	validator   *validator.Validate
	now         func() time.Time
}

// NewService builds Service instance. idem may be nil to disable key checks.
func NewService(repo RepositoryPort, idem IdempotencyPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		idempotency: idem,
		audit:       audit,
		logger:      logger,
		validator:   validator.New(),
		now:         time.Now,
	}
}

// WithNow overrides the clock used for payment dates.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns one page of payments.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Bayaran, shared.Pagination, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, shared.Pagination{}, ErrInvalidStatus
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filters.Page.Page, filters.Page.PerPage, total), nil
}

// Get returns one payment.
func (s *Service) Get(ctx context.Context, id int64) (Bayaran, error) {
	return s.repo.Get(ctx, id)
}

// Create records a pending payment. A non-empty key makes the request
// idempotent: replays fail with shared.ErrIdempotencyConflict.
func (s *Service) Create(ctx context.Context, actorID int64, key string, input Input) (Bayaran, error) {
	rec, err := s.record(input)
	if err != nil {
		return Bayaran{}, err
	}
	rec.CreatedBy = actorID

	key = strings.TrimSpace(key)
	insertedKey := false
	if key != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return Bayaran{}, err
		}
		insertedKey = true
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		if insertedKey {
			if derr := s.idempotency.Delete(ctx, key, idempotencyModule); derr != nil {
				s.logger.WarnContext(ctx, "release idempotency key", slog.Any("error", derr))
			}
		}
		return Bayaran{}, err
	}
	s.audited(ctx, actorID, "bayaran.created", created.ID, map[string]any{"no_invois": created.NoInvois, "amaun_sen": created.AmaunSen})
	return created, nil
}

// Update edits a payment that is still TERTUNDA.
func (s *Service) Update(ctx context.Context, actorID, id int64, input Input) (Bayaran, error) {
	rec, err := s.record(input)
	if err != nil {
		return Bayaran{}, err
	}
	updated, err := s.repo.Update(ctx, id, rec)
	if err != nil {
		return Bayaran{}, err
	}
	s.audited(ctx, actorID, "bayaran.updated", id, nil)
	return updated, nil
}

// Approve moves a pending payment to DILULUSKAN.
func (s *Service) Approve(ctx context.Context, actorID, id int64) (Bayaran, error) {
	b, err := s.repo.Transition(ctx, id, []Status{StatusTertunda}, StatusDiluluskan, nil, "")
	if err != nil {
		return Bayaran{}, err
	}
	s.audited(ctx, actorID, "bayaran.approved", id, nil)
	return b, nil
}

// MarkPaid records payment of an approved invoice.
func (s *Service) MarkPaid(ctx context.Context, actorID, id int64, input PayInput) (Bayaran, error) {
	input.NoBaucar = strings.TrimSpace(input.NoBaucar)
	if err := s.validator.Struct(input); err != nil {
		return Bayaran{}, err
	}
	paidAt := s.now()
	paidAt = time.Date(paidAt.Year(), paidAt.Month(), paidAt.Day(), 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(input.TarikhBayar) != "" {
		parsed, err := ParseDate(input.TarikhBayar)
		if err != nil {
			return Bayaran{}, err
		}
		paidAt = parsed
	}
	b, err := s.repo.Transition(ctx, id, []Status{StatusDiluluskan}, StatusDibayar, &paidAt, input.NoBaucar)
	if err != nil {
		return Bayaran{}, err
	}
	s.audited(ctx, actorID, "bayaran.paid", id, map[string]any{"tarikh_bayar": paidAt.Format(DateLayout)})
	return b, nil
}

// Cancel voids a payment that has not been paid.
func (s *Service) Cancel(ctx context.Context, actorID, id int64) (Bayaran, error) {
	b, err := s.repo.Transition(ctx, id, []Status{StatusTertunda, StatusDiluluskan}, StatusDibatalkan, nil, "")
	if err != nil {
		return Bayaran{}, err
	}
	s.audited(ctx, actorID, "bayaran.cancelled", id, nil)
	return b, nil
}

// Delete removes a payment that has not been paid.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audited(ctx, actorID, "bayaran.deleted", id, nil)
	return nil
}

// Summary returns totals for every status, including empty ones.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	raw, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	summary := make(Summary, len(Statuses))
	for _, status := range Statuses {
		total := raw[status]
		total.Amaun = FormatRinggit(total.AmaunSen)
		summary[status] = total
	}
	return summary, nil
}

func (s *Service) record(input Input) (Record, error) {
	input.Kontraktor = strings.TrimSpace(input.Kontraktor)
	input.NoInvois = strings.TrimSpace(input.NoInvois)
	input.NoBaucar = strings.TrimSpace(input.NoBaucar)
	input.Projek = strings.TrimSpace(input.Projek)
	if err := s.validator.Struct(input); err != nil {
		return Record{}, err
	}
	tarikh, err := ParseDate(input.TarikhInvois)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Kontraktor:   input.Kontraktor,
		NoInvois:     input.NoInvois,
		NoBaucar:     input.NoBaucar,
		Projek:       input.Projek,
		AmaunSen:     input.AmaunSen,
		TarikhInvois: tarikh,
		Catatan:      strings.TrimSpace(input.Catatan),
	}, nil
}

func (s *Service) audited(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "bayaran",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit record", slog.String("action", action), slog.Any("error", err))
	}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
