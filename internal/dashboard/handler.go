package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sistem-pejabat/pejabat/internal/platform/httpx"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
)

// Handler exposes dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.Check{Resource: rbac.ResourceDashboard, Action: rbac.ActionView})).Get("/summary", h.summary)
	r.With(h.rbac.Authenticated()).Get("/nav", h.nav)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	subject, _ := rbac.CurrentSubject(r)
	summary, err := h.service.Summary(r.Context(), subject)
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) nav(w http.ResponseWriter, r *http.Request) {
	subject, _ := rbac.CurrentSubject(r)
	httpx.JSON(w, http.StatusOK, map[string]any{"data": h.service.Navigation(subject)})
}
