package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sistem-pejabat/pejabat/internal/platform/httpx"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	rbac           rbac.Middleware
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, rbacMW rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		rbac:           rbacMW,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.handleCSRF)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/forgot", h.handleForgot)
	r.Post("/reset", h.handleReset)
	r.Post("/password/strength", h.handleStrength)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticated())
		r.Get("/me", h.handleMe)
		r.Post("/password", h.handleChangePassword)
		r.Post("/permissions/refresh", h.handleRefresh)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *LoginResult `json:"user"`
	CSRFToken string       `json:"csrf_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	FirstTime       bool   `json:"first_time"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type strengthRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, shared.ErrSessionMissing)
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrStoreUnavailable):
			h.logger.Error("login", slog.Any("error", err))
		case errors.Is(err, ErrInvalidCredentials):
			h.logger.Warn("login failed", slog.String("username", req.Username), slog.String("ip", r.RemoteAddr))
		}
		respondAuthError(w, err)
		return
	}

	sess.Rotate()
	if err := rbac.StoreSubject(sess, result.Subject()); err != nil {
		h.logger.Error("store subject", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	sess.Delete(shared.CSRFSessionKey)
	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, result.UserID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.logger.Info("login", slog.String("username", result.Username), slog.Int("capabilities", len(result.Permissions)))
	httpx.JSON(w, http.StatusOK, loginResponse{User: result, CSRFToken: csrfToken})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if sess.User() != "" {
			if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
				h.logger.Warn("remove session", slog.Any("error", err))
			}
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	subject, _ := rbac.CurrentSubject(r)
	result, err := h.service.Profile(r.Context(), subject.Username)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	subject, _ := rbac.CurrentSubject(r)
	// Only a session opened with an issued password may skip the current one.
	if req.FirstTime && !subject.MustChangePassword {
		httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal", "Kata laluan semasa diperlukan")
		return
	}
	err := h.service.ChangePassword(r.Context(), subject.Username, req.CurrentPassword, req.NewPassword, req.FirstTime)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal", "Kata laluan semasa tidak sah")
			return
		}
		respondAuthError(w, err)
		return
	}
	if subject.MustChangePassword {
		subject.MustChangePassword = false
		if err := rbac.StoreSubject(shared.SessionFromContext(r.Context()), subject); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	current, _ := rbac.CurrentSubject(r)
	subject, err := h.service.RefreshPermissions(r.Context(), current.Username)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	if err := rbac.StoreSubject(shared.SessionFromContext(r.Context()), subject); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if subject.Capabilities == nil {
		subject.Capabilities = []rbac.Capability{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": subject.Capabilities, "role_name": subject.RoleName})
}

func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Error("request password reset", slog.Any("error", err))
		respondAuthError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"message": "Jika e-mel tersebut berdaftar, pautan tetapan semula telah dihantar",
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ResetPasswordWithToken(r.Context(), req.Token, req.NewPassword); err != nil {
		respondAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStrength(w http.ResponseWriter, r *http.Request) {
	var req strengthRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Strength(req.Password))
}

// respondAuthError maps auth errors to problems without leaking store detail.
func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal", "Nama pengguna dan kata laluan diperlukan")
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Problem(w, http.StatusUnauthorized, "Tidak Disahkan", "Nama pengguna atau kata laluan tidak sah")
	case errors.Is(err, ErrPasswordEqualsUsername):
		httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal", "Kata laluan tidak boleh sama dengan nama pengguna")
	case errors.Is(err, ErrWeakPassword):
		httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal",
			"Kata laluan mesti sekurang-kurangnya 8 aksara dengan huruf besar, huruf kecil dan digit")
	case errors.Is(err, ErrInvalidResetToken):
		httpx.Problem(w, http.StatusBadRequest, "Pengesahan Gagal", "Pautan tetapan semula tidak sah atau telah tamat tempoh")
	case errors.Is(err, ErrStoreUnavailable):
		httpx.Problem(w, http.StatusServiceUnavailable, "Perkhidmatan Tidak Tersedia", "")
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		httpx.RespondError(w, err)
	}
}
