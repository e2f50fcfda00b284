package surat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Service handles the correspondence register.
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

// List returns one page of letters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Surat, shared.Pagination, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, shared.Pagination{}, ErrInvalidStatus
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filters.Page.Page, filters.Page.PerPage, total), nil
}

// Get returns one letter.
func (s *Service) Get(ctx context.Context, id int64) (Surat, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a letter with status BARU.
func (s *Service) Create(ctx context.Context, actorID int64, input Input) (Surat, error) {
	rec, err := s.record(input)
	if err != nil {
		return Surat{}, err
	}
	rec.CreatedBy = actorID
	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return Surat{}, err
	}
	s.audited(ctx, actorID, "surat.created", created.ID, map[string]any{"jenis": created.Jenis, "no_rujukan": created.NoRujukan})
	return created, nil
}

// Update replaces the editable fields. Status is untouched.
func (s *Service) Update(ctx context.Context, actorID, id int64, input Input) (Surat, error) {
	rec, err := s.record(input)
	if err != nil {
		return Surat{}, err
	}
	updated, err := s.repo.Update(ctx, id, rec)
	if err != nil {
		return Surat{}, err
	}
	s.audited(ctx, actorID, "surat.updated", id, nil)
	return updated, nil
}

// UpdateStatus moves a letter forward through BARU, DIPROSES and SELESAI.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id int64, next Status) (Surat, error) {
	if !next.Valid() {
		return Surat{}, ErrInvalidStatus
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Surat{}, err
	}
	if !current.Status.CanTransitionTo(next) {
		return Surat{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}
	updated, err := s.repo.UpdateStatus(ctx, id, next.Predecessors(), next)
	if errors.Is(err, ErrInvalidTransition) {
		return Surat{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}
	if err != nil {
		return Surat{}, err
	}
	s.audited(ctx, actorID, "surat.status", id, map[string]any{"from": current.Status, "to": next})
	return updated, nil
}

// Delete removes a letter.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audited(ctx, actorID, "surat.deleted", id, nil)
	return nil
}

// CountMonth counts letters per jenis in the calendar month containing at.
func (s *Service) CountMonth(ctx context.Context, at time.Time) (Counts, error) {
	from := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, at.Location())
	return s.repo.CountByJenis(ctx, from, from.AddDate(0, 1, 0))
}

func (s *Service) record(input Input) (Record, error) {
	input.Jenis = Jenis(strings.ToUpper(strings.TrimSpace(string(input.Jenis))))
	input.NoRujukan = strings.TrimSpace(input.NoRujukan)
	input.Pihak = strings.TrimSpace(input.Pihak)
	input.Perkara = strings.TrimSpace(input.Perkara)
	input.Kategori = strings.TrimSpace(input.Kategori)
	input.LampiranURL = strings.TrimSpace(input.LampiranURL)
	if err := s.validator.Struct(input); err != nil {
		return Record{}, err
	}
	tarikh, err := ParseDate(input.Tarikh)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Jenis:       input.Jenis,
		NoRujukan:   input.NoRujukan,
		Tarikh:      tarikh,
		Pihak:       input.Pihak,
		Perkara:     input.Perkara,
		Kategori:    input.Kategori,
		LampiranURL: input.LampiranURL,
		Catatan:     strings.TrimSpace(input.Catatan),
	}, nil
}

func (s *Service) audited(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "surat",
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
