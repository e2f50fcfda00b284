package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

func TestCSRFMiddleware(t *testing.T) {
	csrf := shared.NewCSRFManager("rahsia")
	sm := shared.NewSessionManager(nil, "pejabat_session", 0, false)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := CSRFMiddleware(csrf, nil)(next)

	request := func(method, token string) (*http.Request, *shared.Session) {
		req := httptest.NewRequest(method, "/surat", nil)
		sess, err := sm.Load(req.Context(), req)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set(CSRFHeader, token)
		}
		return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
	}

	req, _ := request(http.MethodGet, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req, _ = request(http.MethodPost, "")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req, sess := request(http.MethodPost, "")
	token, err := csrf.EnsureToken(req.Context(), sess)
	require.NoError(t, err)
	req.Header.Set(CSRFHeader, token)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req, sess = request(http.MethodDelete, "")
	_, err = csrf.EnsureToken(req.Context(), sess)
	require.NoError(t, err)
	req.Header.Set(CSRFHeader, "palsu")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/surat", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code, "requests without a session are refused")
}
