package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sistem-pejabat/pejabat/internal/bayaran"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/surat"
)

// SuratCounter counts letters per jenis for a month.
type SuratCounter interface {
	CountMonth(ctx context.Context, at time.Time) (surat.Counts, error)
}

// BayaranSummarizer totals payments per status.
type BayaranSummarizer interface {
	Summary(ctx context.Context) (bayaran.Summary, error)
}

// Summary is the dashboard payload. Sections the subject may not view are nil.
type Summary struct {
	Bulan   string          `json:"bulan"`
	Surat   surat.Counts    `json:"surat,omitempty"`
	Bayaran bayaran.Summary `json:"bayaran,omitempty"`
}

// NavItem is one entry of the main menu.
type NavItem struct {
	Label    string `json:"label"`
	Path     string `json:"path"`
	Resource string `json:"-"`
}

var menu = []NavItem{
	{Label: "Papan Pemuka", Path: "/dashboard", Resource: rbac.ResourceDashboard},
	{Label: "Surat Masuk", Path: "/surat?jenis=MASUK", Resource: rbac.ResourceSurat},
	{Label: "Surat Keluar", Path: "/surat?jenis=KELUAR", Resource: rbac.ResourceSurat},
	{Label: "Bayaran Kontraktor", Path: "/bayaran", Resource: rbac.ResourceBayaran},
	{Label: "Pengguna", Path: "/users", Resource: rbac.ResourceUsers},
	{Label: "Peranan", Path: "/roles", Resource: rbac.ResourceRoles},
	{Label: "Kebenaran", Path: "/permissions", Resource: rbac.ResourcePermissionList},
}

// Service assembles dashboard data.
type Service struct {
	surat      SuratCounter
	bayaran    BayaranSummarizer
	authorizer rbac.Authorizer
	now        func() time.Time
}

// NewService builds Service instance.
func NewService(surat SuratCounter, bayaran BayaranSummarizer, authorizer rbac.Authorizer) *Service {
	return &Service{surat: surat, bayaran: bayaran, authorizer: authorizer, now: time.Now}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Summary gathers this month's letter counts and payment totals concurrently.
func (s *Service) Summary(ctx context.Context, subject rbac.Subject) (Summary, error) {
	now := s.now()
	out := Summary{Bulan: now.Format("2006-01")}
	g, gctx := errgroup.WithContext(ctx)
	if s.canView(subject, rbac.ResourceSurat) {
		g.Go(func() error {
			counts, err := s.surat.CountMonth(gctx, now)
			if err != nil {
				return err
			}
			out.Surat = counts
			return nil
		})
	}
	if s.canView(subject, rbac.ResourceBayaran) {
		g.Go(func() error {
			summary, err := s.bayaran.Summary(gctx)
			if err != nil {
				return err
			}
			out.Bayaran = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// Navigation returns the menu entries the subject may open.
func (s *Service) Navigation(subject rbac.Subject) []NavItem {
	items := make([]NavItem, 0, len(menu))
	for _, item := range menu {
		if s.canView(subject, item.Resource) {
			items = append(items, item)
		}
	}
	return items
}

func (s *Service) canView(subject rbac.Subject, resource string) bool {
	return s.authorizer.Allowed(subject, rbac.Check{Resource: resource, Action: rbac.ActionView})
}
