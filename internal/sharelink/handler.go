package sharelink

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sistem-pejabat/pejabat/internal/platform/httpx"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
)

// Loader fetches the shared record. It returns ErrNotFound when id is unknown.
type Loader func(ctx context.Context, id int64) (any, error)

// Handler serves share link management and the public share endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
	baseURL string
	loaders map[string]Loader
}

// NewHandler builds Handler instance. baseURL prefixes generated share URLs.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, baseURL string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		service: service,
		rbac:    rbac,
		baseURL: strings.TrimRight(baseURL, "/"),
		loaders: map[string]Loader{},
	}
}

// RegisterLoader makes resource shareable.
func (h *Handler) RegisterLoader(resource string, loader Loader) {
	h.loaders[resource] = loader
}

// MountRoutes registers the authenticated /share routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.Authenticated())
	r.Post("/", h.create)
	r.Delete("/{token}", h.revoke)
}

// MountPublic registers the anonymous /s routes.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/{token}", h.resolve)
}

type linkResponse struct {
	Link
	URL string `json:"url"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.Resource = strings.ToLower(strings.TrimSpace(input.Resource))
	if !h.canView(r, input.Resource) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	loader, ok := h.loaders[input.Resource]
	if !ok {
		h.fail(w, "create share link", ErrUnknownResource)
		return
	}
	if _, err := loader(r.Context(), input.ResourceID); err != nil {
		h.fail(w, "create share link", err)
		return
	}
	link, err := h.service.Create(r.Context(), rbac.ActorID(r), input)
	if err != nil {
		h.fail(w, "create share link", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, linkResponse{Link: link, URL: h.baseURL + "/s/" + link.Token.String()})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, "revoke share link", err)
		return
	}
	if !h.canView(r, link.Resource) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	if err := h.service.Revoke(r.Context(), rbac.ActorID(r), link); err != nil {
		h.fail(w, "revoke share link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, "resolve share link", err)
		return
	}
	loader, ok := h.loaders[link.Resource]
	if !ok {
		h.fail(w, "resolve share link", ErrNotFound)
		return
	}
	record, err := loader(r.Context(), link.ResourceID)
	if err != nil {
		h.fail(w, "resolve share link", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"resource":   link.Resource,
		"expires_at": link.ExpiresAt.Format(time.RFC3339),
		"data":       record,
	})
}

func (h *Handler) canView(r *http.Request, resource string) bool {
	subject, ok := rbac.CurrentSubject(r)
	if !ok {
		return false
	}
	return h.rbac.Authorizer.Allowed(subject, rbac.Check{Resource: resource, Action: rbac.ActionView})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Tidak Dijumpai", ErrNotFound.Error())
	case errors.Is(err, ErrExpired):
		httpx.Problem(w, http.StatusGone, "Tamat Tempoh", ErrExpired.Error())
	case errors.Is(err, ErrUnknownResource):
		httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal", ErrUnknownResource.Error())
	default:
		if !httpx.IsClientError(err) {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
