package bayaran

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

// IdempotencyHeader carries the client request key on create.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes the payment register over HTTP.
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

// MountRoutes registers bayaran routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Check{Resource: rbac.ResourceBayaran, Action: rbac.ActionView}))
		r.Get("/", h.list)
		r.Get("/summary", h.summary)
		r.Get("/{id}", h.get)
	})
	r.With(h.rbac.Require(rbac.Check{Resource: rbac.ResourceBayaran, Action: rbac.ActionCreate})).Post("/", h.create)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.Check{Resource: rbac.ResourceBayaran, Action: rbac.ActionEdit}))
		r.Put("/{id}", h.update)
		r.Post("/{id}/pay", h.markPaid)
		r.Post("/{id}/cancel", h.cancel)
	})
	r.With(h.rbac.Require(rbac.Check{Resource: rbac.ResourceBayaran, Action: rbac.ActionApprove})).Post("/{id}/approve", h.approve)
	r.With(h.rbac.Require(rbac.Check{Resource: rbac.ResourceBayaran, Action: rbac.ActionDelete})).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		h.fail(w, "list bayaran", err)
		return
	}
	items, page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.fail(w, "list bayaran", err)
		return
	}
	if items == nil {
		items = []Bayaran{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items, "pagination": page})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, "bayaran summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := bayaranID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get bayaran", err)
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
	item, err := h.service.Create(r.Context(), rbac.ActorID(r), r.Header.Get(IdempotencyHeader), input)
	if err != nil {
		h.fail(w, "create bayaran", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := bayaranID(w, r)
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
		h.fail(w, "update bayaran", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := bayaranID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Approve(r.Context(), rbac.ActorID(r), id)
	if err != nil {
		h.fail(w, "approve bayaran", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := bayaranID(w, r)
	if !ok {
		return
	}
	var input PayInput
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &input); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	item, err := h.service.MarkPaid(r.Context(), rbac.ActorID(r), id, input)
	if err != nil {
		h.fail(w, "pay bayaran", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := bayaranID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Cancel(r.Context(), rbac.ActorID(r), id)
	if err != nil {
		h.fail(w, "cancel bayaran", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bayaranID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), rbac.ActorID(r), id); err != nil {
		h.fail(w, "delete bayaran", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBayaranNotFound):
		httpx.Problem(w, http.StatusNotFound, "Tidak Dijumpai", ErrBayaranNotFound.Error())
	case errors.Is(err, ErrDuplicateInvois):
		httpx.Problem(w, http.StatusConflict, "Rekod Bertindih", ErrDuplicateInvois.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Permintaan Berulang", "permintaan dengan kunci yang sama telah diproses")
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Konflik", ErrInvalidTransition.Error())
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

func bayaranID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return 0, false
	}
	return id, true
}
