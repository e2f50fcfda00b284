package bayaran

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

type memoryBayaranRepo struct {
	items     map[int64]Bayaran
	nextID    int64
	failWrite error
}

func newMemoryBayaranRepo() *memoryBayaranRepo {
	return &memoryBayaranRepo{items: map[int64]Bayaran{}}
}

func (r *memoryBayaranRepo) List(_ context.Context, filters ListFilters) ([]Bayaran, int, error) {
	var out []Bayaran
	for id := int64(1); id <= r.nextID; id++ {
		b, ok := r.items[id]
		if !ok {
			continue
		}
		if filters.Status != "" && b.Status != filters.Status {
			continue
		}
		out = append(out, b)
	}
	return out, len(out), nil
}

func (r *memoryBayaranRepo) Get(_ context.Context, id int64) (Bayaran, error) {
	b, ok := r.items[id]
	if !ok {
		return Bayaran{}, ErrBayaranNotFound
	}
	return b, nil
}

func (r *memoryBayaranRepo) Create(_ context.Context, rec Record) (Bayaran, error) {
	if r.failWrite != nil {
		return Bayaran{}, r.failWrite
	}
	for _, b := range r.items {
		if b.NoInvois == rec.NoInvois {
			return Bayaran{}, ErrDuplicateInvois
		}
	}
	r.nextID++
	b := Bayaran{
		ID:           r.nextID,
		Kontraktor:   rec.Kontraktor,
		NoInvois:     rec.NoInvois,
		NoBaucar:     rec.NoBaucar,
		Projek:       rec.Projek,
		AmaunSen:     rec.AmaunSen,
		Amaun:        FormatRinggit(rec.AmaunSen),
		TarikhInvois: rec.TarikhInvois,
		Status:       StatusTertunda,
		Catatan:      rec.Catatan,
		CreatedBy:    rec.CreatedBy,
	}
	r.items[b.ID] = b
	return b, nil
}

func (r *memoryBayaranRepo) Update(_ context.Context, id int64, rec Record) (Bayaran, error) {
	b, ok := r.items[id]
	if !ok {
		return Bayaran{}, ErrBayaranNotFound
	}
	if b.Status != StatusTertunda {
		return Bayaran{}, ErrInvalidTransition
	}
	b.Kontraktor = rec.Kontraktor
	b.AmaunSen = rec.AmaunSen
	b.Amaun = FormatRinggit(rec.AmaunSen)
	r.items[id] = b
	return b, nil
}

func (r *memoryBayaranRepo) Transition(_ context.Context, id int64, from []Status, to Status, paidAt *time.Time, noBaucar string) (Bayaran, error) {
	b, ok := r.items[id]
	if !ok {
		return Bayaran{}, ErrBayaranNotFound
	}
	allowed := false
	for _, s := range from {
		if b.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return Bayaran{}, ErrInvalidTransition
	}
	b.Status = to
	if paidAt != nil {
		b.TarikhBayar = paidAt
	}
	if noBaucar != "" {
		b.NoBaucar = noBaucar
	}
	r.items[id] = b
	return b, nil
}

func (r *memoryBayaranRepo) Delete(_ context.Context, id int64) error {
	b, ok := r.items[id]
	if !ok {
		return ErrBayaranNotFound
	}
	if b.Status == StatusDibayar {
		return ErrInvalidTransition
	}
	delete(r.items, id)
	return nil
}

func (r *memoryBayaranRepo) Summary(context.Context) (Summary, error) {
	summary := Summary{}
	for _, b := range r.items {
		total := summary[b.Status]
		total.Count++
		total.AmaunSen += b.AmaunSen
		summary[b.Status] = total
	}
	return summary, nil
}

type memoryIdempotency struct {
	seen    map[string]bool
	deleted []string
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[module+":"+key] {
		return shared.ErrIdempotencyConflict
	}
	m.seen[module+":"+key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key, module string) error {
	delete(m.seen, module+":"+key)
	m.deleted = append(m.deleted, key)
	return nil
}

func invoice(no string, sen int64) Input {
	return Input{
		Kontraktor:   "Syarikat Binaan Maju Sdn Bhd",
		NoInvois:     no,
		Projek:       "Naik taraf bilik mesyuarat",
		AmaunSen:     sen,
		TarikhInvois: "2024-06-10",
	}
}

func TestFormatRinggit(t *testing.T) {
	cases := map[int64]string{
		0:         "RM0.00",
		5:         "RM0.05",
		123450:    "RM1,234.50",
		100000000: "RM1,000,000.00",
		-2599:     "-RM25.99",
	}
	for sen, want := range cases {
		assert.Equal(t, want, FormatRinggit(sen), "sen=%d", sen)
	}
}

func TestCreateValidates(t *testing.T) {
	svc := NewService(newMemoryBayaranRepo(), nil, nil, nil)
	var verrs validator.ValidationErrors

	_, err := svc.Create(context.Background(), 1, "", invoice("INV-1", 0))
	assert.ErrorAs(t, err, &verrs)

	in := invoice("INV-1", 1000)
	in.Kontraktor = " "
	_, err = svc.Create(context.Background(), 1, "", in)
	assert.ErrorAs(t, err, &verrs)

	in = invoice("INV-1", 1000)
	in.TarikhInvois = "10-06-2024"
	_, err = svc.Create(context.Background(), 1, "", in)
	assert.ErrorIs(t, err, ErrInvalidDate)

	created, err := svc.Create(context.Background(), 1, "", invoice("INV-1", 1000))
	require.NoError(t, err)
	assert.Equal(t, StatusTertunda, created.Status)
	assert.Equal(t, "RM10.00", created.Amaun)
}

func TestCreateIdempotencyKey(t *testing.T) {
	repo := newMemoryBayaranRepo()
	idem := &memoryIdempotency{}
	svc := NewService(repo, idem, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "abc-123", invoice("INV-1", 5000))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, "abc-123", invoice("INV-2", 5000))
	assert.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	assert.Len(t, repo.items, 1)

	repo.failWrite = errors.New("db down")
	_, err = svc.Create(ctx, 1, "def-456", invoice("INV-3", 5000))
	require.Error(t, err)
	assert.Equal(t, []string{"def-456"}, idem.deleted)

	repo.failWrite = nil
	_, err = svc.Create(ctx, 1, "def-456", invoice("INV-3", 5000))
	require.NoError(t, err)
}

func TestPaymentLifecycle(t *testing.T) {
	repo := newMemoryBayaranRepo()
	svc := NewService(repo, nil, nil, nil).WithNow(func() time.Time {
		return time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC)
	})
	ctx := context.Background()
	created, err := svc.Create(ctx, 1, "", invoice("INV-9", 250000))
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, 1, created.ID, PayInput{})
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending payments cannot be paid")

	approved, err := svc.Approve(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDiluluskan, approved.Status)

	_, err = svc.Update(ctx, 1, created.ID, invoice("INV-9", 1))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	paid, err := svc.MarkPaid(ctx, 1, created.ID, PayInput{NoBaucar: "BV-77"})
	require.NoError(t, err)
	assert.Equal(t, StatusDibayar, paid.Status)
	require.NotNil(t, paid.TarikhBayar)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), *paid.TarikhBayar)
	assert.Equal(t, "BV-77", paid.NoBaucar)

	_, err = svc.Cancel(ctx, 1, created.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, svc.Delete(ctx, 1, created.ID), ErrInvalidTransition)

	_, err = svc.Approve(ctx, 1, 404)
	assert.ErrorIs(t, err, ErrBayaranNotFound)
}

func TestMarkPaidWithExplicitDate(t *testing.T) {
	repo := newMemoryBayaranRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, 1, "", invoice("INV-10", 100))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, 1, created.ID)
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, 1, created.ID, PayInput{TarikhBayar: "semalam"})
	assert.ErrorIs(t, err, ErrInvalidDate)

	paid, err := svc.MarkPaid(ctx, 1, created.ID, PayInput{TarikhBayar: "2024-08-15"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), *paid.TarikhBayar)
}

func TestCancelAndSummary(t *testing.T) {
	repo := newMemoryBayaranRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	first, err := svc.Create(ctx, 1, "", invoice("INV-1", 10000))
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, "", invoice("INV-2", 2550))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, 1, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDibatalkan, cancelled.Status)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Len(t, summary, len(Statuses))
	assert.Equal(t, Total{Count: 1, AmaunSen: 2550, Amaun: "RM25.50"}, summary[StatusTertunda])
	assert.Equal(t, Total{Count: 1, AmaunSen: 10000, Amaun: "RM100.00"}, summary[StatusDibatalkan])
	assert.Equal(t, Total{Amaun: "RM0.00"}, summary[StatusDibayar])
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemoryBayaranRepo(), nil, nil, nil)
	_, _, err := svc.List(context.Background(), ListFilters{Status: "HILANG"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
