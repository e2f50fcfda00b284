package surat

import (
	"context"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

type memorySuratRepo struct {
	items        map[int64]Surat
	nextID       int64
	beforeStatus func(id int64)
}

func newMemorySuratRepo() *memorySuratRepo {
	return &memorySuratRepo{items: map[int64]Surat{}}
}

func (r *memorySuratRepo) List(_ context.Context, filters ListFilters) ([]Surat, int, error) {
	var out []Surat
	for id := int64(1); id <= r.nextID; id++ {
		s, ok := r.items[id]
		if !ok {
			continue
		}
		if filters.Jenis != "" && s.Jenis != filters.Jenis {
			continue
		}
		if filters.Status != "" && s.Status != filters.Status {
			continue
		}
		if filters.From != nil && s.Tarikh.Before(*filters.From) {
			continue
		}
		if filters.To != nil && s.Tarikh.After(*filters.To) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (r *memorySuratRepo) Get(_ context.Context, id int64) (Surat, error) {
	s, ok := r.items[id]
	if !ok {
		return Surat{}, ErrSuratNotFound
	}
	return s, nil
}

func (r *memorySuratRepo) Create(_ context.Context, rec Record) (Surat, error) {
	for _, s := range r.items {
		if s.Jenis == rec.Jenis && s.NoRujukan == rec.NoRujukan {
			return Surat{}, ErrDuplicateRujukan
		}
	}
	r.nextID++
	s := fromRecord(r.nextID, rec)
	s.Status = StatusBaru
	r.items[s.ID] = s
	return s, nil
}

func (r *memorySuratRepo) Update(_ context.Context, id int64, rec Record) (Surat, error) {
	current, ok := r.items[id]
	if !ok {
		return Surat{}, ErrSuratNotFound
	}
	s := fromRecord(id, rec)
	s.Status = current.Status
	s.CreatedBy = current.CreatedBy
	r.items[id] = s
	return s, nil
}

func (r *memorySuratRepo) UpdateStatus(_ context.Context, id int64, from []Status, to Status) (Surat, error) {
	if r.beforeStatus != nil {
		r.beforeStatus(id)
	}
	s, ok := r.items[id]
	if !ok {
		return Surat{}, ErrSuratNotFound
	}
	if !slices.Contains(from, s.Status) {
		return Surat{}, ErrInvalidTransition
	}
	s.Status = to
	r.items[id] = s
	return s, nil
}

func (r *memorySuratRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrSuratNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memorySuratRepo) CountByJenis(_ context.Context, from, to time.Time) (Counts, error) {
	counts := Counts{JenisMasuk: 0, JenisKeluar: 0}
	for _, s := range r.items {
		if !s.Tarikh.Before(from) && s.Tarikh.Before(to) {
			counts[s.Jenis]++
		}
	}
	return counts, nil
}

func fromRecord(id int64, rec Record) Surat {
	return Surat{
		ID:          id,
		Jenis:       rec.Jenis,
		NoRujukan:   rec.NoRujukan,
		Tarikh:      rec.Tarikh,
		Pihak:       rec.Pihak,
		Perkara:     rec.Perkara,
		Kategori:    rec.Kategori,
		LampiranURL: rec.LampiranURL,
		Catatan:     rec.Catatan,
		CreatedBy:   rec.CreatedBy,
	}
}

type auditSpy struct{ actions []string }

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

func validInput() Input {
	return Input{
		Jenis:     "masuk",
		NoRujukan: "JKR/2024/001",
		Tarikh:    "2024-03-05",
		Pihak:     "Jabatan Kerja Raya",
		Perkara:   "Permohonan kelulusan projek",
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusBaru, StatusDiproses, true},
		{StatusDiproses, StatusSelesai, true},
		{StatusBaru, StatusSelesai, true},
		{StatusDiproses, StatusBaru, false},
		{StatusSelesai, StatusDiproses, false},
		{StatusSelesai, StatusSelesai, false},
		{StatusBaru, Status("DIARKIB"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCreateNormalisesAndAudits(t *testing.T) {
	repo := newMemorySuratRepo()
	audit := &auditSpy{}
	svc := NewService(repo, audit, nil)

	created, err := svc.Create(context.Background(), 3, validInput())
	require.NoError(t, err)
	assert.Equal(t, JenisMasuk, created.Jenis)
	assert.Equal(t, StatusBaru, created.Status)
	assert.Equal(t, int64(3), created.CreatedBy)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), created.Tarikh)
	assert.Equal(t, []string{"surat.created"}, audit.actions)

	_, err = svc.Create(context.Background(), 3, validInput())
	assert.ErrorIs(t, err, ErrDuplicateRujukan)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newMemorySuratRepo(), nil, nil)
	var verrs validator.ValidationErrors

	input := validInput()
	input.Jenis = "DALAMAN"
	_, err := svc.Create(context.Background(), 1, input)
	assert.ErrorAs(t, err, &verrs)

	input = validInput()
	input.Perkara = "  "
	_, err = svc.Create(context.Background(), 1, input)
	assert.ErrorAs(t, err, &verrs)

	input = validInput()
	input.LampiranURL = "bukan url"
	_, err = svc.Create(context.Background(), 1, input)
	assert.ErrorAs(t, err, &verrs)

	input = validInput()
	input.Tarikh = "05/03/2024"
	_, err = svc.Create(context.Background(), 1, input)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestUpdateStatusMovesForwardOnly(t *testing.T) {
	repo := newMemorySuratRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, 1, created.ID, StatusDiproses)
	require.NoError(t, err)
	assert.Equal(t, StatusDiproses, updated.Status)

	_, err = svc.UpdateStatus(ctx, 1, created.ID, StatusBaru)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, 1, created.ID, Status("HILANG"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, 1, 99, StatusSelesai)
	assert.ErrorIs(t, err, ErrSuratNotFound)
}

func TestUpdateStatusLosesToConcurrentAdvance(t *testing.T) {
	repo := newMemorySuratRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)

	// Another clerk closes the letter after our read but before our write.
	repo.beforeStatus = func(id int64) {
		s := repo.items[id]
		s.Status = StatusSelesai
		repo.items[id] = s
	}
	_, err = svc.UpdateStatus(ctx, 1, created.ID, StatusDiproses)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSelesai, got.Status)
}

func TestStatusPredecessors(t *testing.T) {
	assert.Empty(t, StatusBaru.Predecessors())
	assert.Equal(t, []Status{StatusBaru}, StatusDiproses.Predecessors())
	assert.Equal(t, []Status{StatusBaru, StatusDiproses}, StatusSelesai.Predecessors())
	assert.Nil(t, Status("HILANG").Predecessors())
}

func TestUpdateKeepsStatus(t *testing.T) {
	repo := newMemorySuratRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, 1, validInput())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, 1, created.ID, StatusSelesai)
	require.NoError(t, err)

	input := validInput()
	input.Perkara = "Permohonan dipinda"
	updated, err := svc.Update(ctx, 1, created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Permohonan dipinda", updated.Perkara)
	assert.Equal(t, StatusSelesai, updated.Status)
}

func TestCountMonth(t *testing.T) {
	repo := newMemorySuratRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	for i, tarikh := range []string{"2024-03-01", "2024-03-31", "2024-04-01"} {
		input := validInput()
		input.NoRujukan = input.NoRujukan + string(rune('a'+i))
		input.Tarikh = tarikh
		_, err := svc.Create(ctx, 1, input)
		require.NoError(t, err)
	}
	keluar := validInput()
	keluar.Jenis = JenisKeluar
	_, err := svc.Create(ctx, 1, keluar)
	require.NoError(t, err)

	counts, err := svc.CountMonth(ctx, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Counts{JenisMasuk: 2, JenisKeluar: 1}, counts)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemorySuratRepo(), nil, nil)
	_, _, err := svc.List(context.Background(), ListFilters{Status: "ENTAH", Page: shared.PageRequest{Page: 1, PerPage: 20}})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters(url.Values{
		"jenis":    {"keluar"},
		"status":   {"baru"},
		"from":     {"2024-01-01"},
		"to":       {"2024-01-31"},
		"page":     {"2"},
		"per_page": {"10"},
	})
	require.NoError(t, err)
	assert.Equal(t, JenisKeluar, filters.Jenis)
	assert.Equal(t, StatusBaru, filters.Status)
	require.NotNil(t, filters.From)
	require.NotNil(t, filters.To)
	assert.Equal(t, 10, filters.Page.Offset())

	_, err = parseFilters(url.Values{"from": {"semalam"}})
	assert.ErrorIs(t, err, ErrInvalidDate)
}
