package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sistem-pejabat/pejabat/internal/platform/httpx"
)

// PermissionLister is the read side of Store used by the handler.
type PermissionLister interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// PermissionsHandler exposes the permission catalogue.
type PermissionsHandler struct {
	logger *slog.Logger
	store  PermissionLister
	rbac   Middleware
}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler(logger *slog.Logger, store PermissionLister, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, store: store, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(Check{Resource: ResourcePermissionList, Action: ActionView}))
		r.Get("/", h.listPermissions)
	})
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.store.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": perms})
}
