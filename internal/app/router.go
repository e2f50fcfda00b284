package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sistem-pejabat/pejabat/internal/audit"
	"github.com/sistem-pejabat/pejabat/internal/auth"
	"github.com/sistem-pejabat/pejabat/internal/bayaran"
	"github.com/sistem-pejabat/pejabat/internal/dashboard"
	"github.com/sistem-pejabat/pejabat/internal/observability"
	"github.com/sistem-pejabat/pejabat/internal/platform/httpx"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/roles"
	"github.com/sistem-pejabat/pejabat/internal/sharelink"
	"github.com/sistem-pejabat/pejabat/internal/shared"
	"github.com/sistem-pejabat/pejabat/internal/surat"
	"github.com/sistem-pejabat/pejabat/internal/users"
	"github.com/sistem-pejabat/pejabat/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	PermissionsHandler *rbac.PermissionsHandler
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	SuratHandler       *surat.Handler
	BayaranHandler     *bayaran.Handler
	ShareLinkHandler   *sharelink.Handler
	DashboardHandler   *dashboard.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with pejabat defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.SuratHandler != nil {
		r.Route("/surat", params.SuratHandler.MountRoutes)
	}
	if params.BayaranHandler != nil {
		r.Route("/bayaran", params.BayaranHandler.MountRoutes)
	}
	if params.ShareLinkHandler != nil {
		r.Route("/share", params.ShareLinkHandler.MountRoutes)
		r.Route("/s", params.ShareLinkHandler.MountPublic)
	}
	if params.DashboardHandler != nil {
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})

	return r
}
