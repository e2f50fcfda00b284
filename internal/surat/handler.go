package surat

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sistem-pejabat/pejabat/internal/platform/httpx"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Handler exposes the correspondence register over HTTP.
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

// MountRoutes registers surat routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Check{Resource: rbac.ResourceSurat, Action: rbac.ActionView}))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.With(h.rbac.Require(rbac.Check{Resource: rbac.ResourceSurat, Action: rbac.ActionCreate})).Post("/", h.create)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Check{Resource: rbac.ResourceSurat, Action: rbac.ActionEdit}))
		r.Put("/{id}", h.update)
		r.Post("/{id}/status", h.updateStatus)
	})
	r.With(h.rbac.Require(rbac.Check{Resource: rbac.ResourceSurat, Action: rbac.ActionDelete})).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		h.fail(w, "list surat", err)
		return
	}
	items, page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.fail(w, "list surat", err)
		return
	}
	if items == nil {
		items = []Surat{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items, "pagination": page})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := suratID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get surat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Create(r.Context(), rbac.ActorID(r), input)
	if err != nil {
		h.fail(w, "create surat", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := suratID(w, r)
	if !ok {
		return
	}
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.Update(r.Context(), rbac.ActorID(r), id, input)
	if err != nil {
		h.fail(w, "update surat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := suratID(w, r)
	if !ok {
		return
	}
	var input StatusInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.UpdateStatus(r.Context(), rbac.ActorID(r), id, Status(strings.ToUpper(string(input.Status))))
	if err != nil {
		h.fail(w, "update surat status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := suratID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), rbac.ActorID(r), id); err != nil {
		h.fail(w, "delete surat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrSuratNotFound):
		httpx.Problem(w, http.StatusNotFound, "Tidak Dijumpai", ErrSuratNotFound.Error())
	case errors.Is(err, ErrDuplicateRujukan):
		httpx.Problem(w, http.StatusConflict, "Rekod Bertindih", ErrDuplicateRujukan.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Konflik", err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidDate):
		httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal", err.Error())
	default:
		if !httpx.IsClientError(err) {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func parseFilters(q url.Values) (ListFilters, error) {
	filters := ListFilters{
		Jenis:  Jenis(strings.ToUpper(q.Get("jenis"))),
		Status: Status(strings.ToUpper(q.Get("status"))),
		Search: q.Get("q"),
		Page:   shared.ParsePageRequest(q),
	}
	if v := q.Get("from"); v != "" {
		from, err := ParseDate(v)
		if err != nil {
			return ListFilters{}, err
		}
		filters.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := ParseDate(v)
		if err != nil {
			return ListFilters{}, err
		}
		filters.To = &to
	}
	return filters, nil
}

func suratID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return 0, false
	}
	return id, true
}
