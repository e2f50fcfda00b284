package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sistem-pejabat/pejabat/internal/auth"
	"github.com/sistem-pejabat/pejabat/internal/rbac"
	"github.com/sistem-pejabat/pejabat/internal/shared"
	_ "github.com/sistem-pejabat/pejabat/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, shared.ErrNotFound
	}
	cp := *s.user
	return &cp, nil
}

func (s *stubRepo) FindByEmail(context.Context, string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func (s *stubRepo) UpdateCredential(_ context.Context, _ string, digest string) error {
	s.user.Password = auth.ParseCredential(digest)
	return nil
}

func (s *stubRepo) UpdatePassword(_ context.Context, _ string, change auth.PasswordChange) error {
	s.user.Password = auth.ParseCredential(change.Digest)
	s.user.MustChangePassword = change.MustChangePassword
	s.user.PasswordMigrated = change.PasswordMigrated
	s.user.LastPasswordChange = change.ChangedAt
	return nil
}

func (s *stubRepo) CreateSession(context.Context, string, int64, time.Time, string, string) error {
	return nil
}

func (s *stubRepo) DeleteSession(context.Context, string) error {
	return nil
}

type staticCaps []rbac.Capability

func (c staticCaps) FindRoleCapabilities(context.Context, int64) ([]rbac.Capability, error) {
	return c, nil
}

func newAuthRouter(t *testing.T, repo auth.Repository, caps auth.CapabilityStore) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	service := auth.NewService(repo, caps, auth.BcryptHasher{Cost: bcrypt.MinCost}, nil)
	handler := auth.NewHandler(nil, service, sessionManager, csrfManager, rbac.NewMiddleware(rbac.DefaultLegacyRoles(), nil))

	r := chi.NewRouter()
	r.Use(sessionManager.Middleware(nil))
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

func roleID(v int64) *int64 { return &v }

func postJSON(path, body string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestLoginMigratesAndReturnsProfile(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Username: "alice", Name: "Alice", Password: auth.ParseCredential("Summer2024"),
		RoleID: roleID(2), RoleName: "kerani", IsActive: true}}
	router, sessions := newAuthRouter(t, repo, staticCaps{{Resource: "surat", Action: "view"}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, postJSON("/auth/login", `{"username":"alice","password":"Summer2024"}`))
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.NotContains(t, res.Body.String(), "Summer2024")
	assert.True(t, repo.user.Password.IsHashed())

	var body struct {
		User struct {
			Username    string            `json:"username"`
			Permissions []rbac.Capability `json:"permissions"`
		} `json:"user"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.User.Username)
	assert.Equal(t, []rbac.Capability{{Resource: "surat", Action: "view"}}, body.User.Permissions)
	assert.NotEmpty(t, body.CSRFToken)

	cookie := sessionCookie(t, res, sessions.CookieName())
	meReq := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	meReq.AddCookie(cookie)
	meRes := httptest.NewRecorder()
	router.ServeHTTP(meRes, meReq)
	require.Equal(t, http.StatusOK, meRes.Code, meRes.Body.String())
	assert.Contains(t, meRes.Body.String(), `"username":"alice"`)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 1, Username: "user", Password: auth.ParseCredential(string(hashed)), IsActive: true}}
	router, _ := newAuthRouter(t, repo, staticCaps{})

	for _, body := range []string{
		`{"username":"user","password":"wrongpass"}`,
		`{"username":"ghost","password":"correctpass"}`,
	} {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, postJSON("/auth/login", body))
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, res.Body.String(), "Nama pengguna atau kata laluan tidak sah")
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{}, staticCaps{})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, postJSON("/auth/login", `{"username":"alice"}`))
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestMeRequiresSession(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{}, staticCaps{})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 3, Username: "bob", Password: auth.ParseCredential("oldpass1A"), IsActive: true}}
	router, sessions := newAuthRouter(t, repo, staticCaps{})

	login := httptest.NewRecorder()
	router.ServeHTTP(login, postJSON("/auth/login", `{"username":"bob","password":"oldpass1A"}`))
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login, sessions.CookieName())

	weak := httptest.NewRecorder()
	router.ServeHTTP(weak, postJSON("/auth/password", `{"current_password":"oldpass1A","new_password":"short1A"}`, cookie))
	assert.Equal(t, http.StatusBadRequest, weak.Code)

	same := httptest.NewRecorder()
	router.ServeHTTP(same, postJSON("/auth/password", `{"current_password":"oldpass1A","new_password":"bob"}`, cookie))
	assert.Equal(t, http.StatusBadRequest, same.Code)
	assert.Contains(t, same.Body.String(), "nama pengguna")

	ok := httptest.NewRecorder()
	router.ServeHTTP(ok, postJSON("/auth/password", `{"current_password":"oldpass1A","new_password":"Baharu2024"}`, cookie))
	assert.Equal(t, http.StatusNoContent, ok.Code, ok.Body.String())
	assert.True(t, repo.user.PasswordMigrated)
}

func TestFirstTimePasswordChangeNeedsIssuedPassword(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 5, Username: "kerani", Password: auth.ParseCredential("Kerani2024"), IsActive: true}}
	router, sessions := newAuthRouter(t, repo, staticCaps{})

	login := httptest.NewRecorder()
	router.ServeHTTP(login, postJSON("/auth/login", `{"username":"kerani","password":"Kerani2024"}`))
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login, sessions.CookieName())

	res := httptest.NewRecorder()
	router.ServeHTTP(res, postJSON("/auth/password", `{"new_password":"Baharu2024","first_time":true}`, cookie))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.user.Password.Value), []byte("Kerani2024")))
	assert.False(t, repo.user.PasswordMigrated)
}

func TestFirstTimePasswordChangeClearsSessionFlag(t *testing.T) {
	digest, err := auth.BcryptHasher{Cost: bcrypt.MinCost}.Hash("baru")
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 6, Username: "baru", Password: auth.ParseCredential(digest), IsActive: true, MustChangePassword: true}}
	router, sessions := newAuthRouter(t, repo, staticCaps{})

	login := httptest.NewRecorder()
	router.ServeHTTP(login, postJSON("/auth/login", `{"username":"baru","password":"baru"}`))
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login, sessions.CookieName())

	first := httptest.NewRecorder()
	router.ServeHTTP(first, postJSON("/auth/password", `{"new_password":"Pertama2024","first_time":true}`, cookie))
	require.Equal(t, http.StatusNoContent, first.Code, first.Body.String())
	assert.False(t, repo.user.MustChangePassword)

	again := httptest.NewRecorder()
	router.ServeHTTP(again, postJSON("/auth/password", `{"new_password":"Kedua2024x","first_time":true}`, cookie))
	assert.Equal(t, http.StatusBadRequest, again.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 4, Username: "siti", Password: auth.ParseCredential("Siti2024x"), IsActive: true}}
	router, sessions := newAuthRouter(t, repo, staticCaps{})

	login := httptest.NewRecorder()
	router.ServeHTTP(login, postJSON("/auth/login", `{"username":"siti","password":"Siti2024x"}`))
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login, sessions.CookieName())

	out := httptest.NewRecorder()
	router.ServeHTTP(out, postJSON("/auth/logout", `{}`, cookie))
	assert.Equal(t, http.StatusNoContent, out.Code)

	meReq := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	meReq.AddCookie(cookie)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, meReq)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

func TestPasswordStrengthEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{}, staticCaps{})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, postJSON("/auth/password/strength", `{"password":"Summer2024"}`))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"score":3,"label":"Kuat"}`, res.Body.String())
}
