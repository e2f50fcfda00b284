package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

func requestWithSubject(t *testing.T, subject *Subject) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/surat", nil)
	sm := shared.NewSessionManager(nil, "pejabat_session", 0, false)
	sess, err := sm.Load(req.Context(), req)
	require.NoError(t, err)
	if subject != nil {
		require.NoError(t, StoreSubject(sess, *subject))
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func newGuardedRouter(m Middleware) http.Handler {
	r := chi.NewRouter()
	r.With(m.Require(Check{Resource: ResourceSurat, Action: ActionView})).Get("/surat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestMiddlewareStatuses(t *testing.T) {
	router := newGuardedRouter(NewMiddleware(DefaultLegacyRoles(), nil))

	cases := []struct {
		name    string
		subject *Subject
		want    int
	}{
		{name: "anonymous", subject: nil, want: http.StatusUnauthorized},
		{name: "granted capability", subject: &Subject{UserID: 1, Capabilities: []Capability{{Resource: ResourceSurat, Action: ActionView}}}, want: http.StatusNoContent},
		{name: "missing capability", subject: &Subject{UserID: 2, RoleName: "admin", Capabilities: []Capability{{Resource: ResourceBayaran, Action: ActionView}}}, want: http.StatusForbidden},
		{name: "legacy role", subject: &Subject{UserID: 3, RoleName: "kerani"}, want: http.StatusNoContent},
		{name: "legacy role denied", subject: &Subject{UserID: 4, RoleName: "kewangan"}, want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, requestWithSubject(t, tc.subject))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestSubjectSessionRoundTrip(t *testing.T) {
	req := requestWithSubject(t, &Subject{UserID: 42, Username: "alice", RoleName: "kerani",
		Capabilities: []Capability{{Resource: ResourceSurat, Action: ActionCreate}}})
	subject, ok := CurrentSubject(req)
	require.True(t, ok)
	assert.Equal(t, int64(42), subject.UserID)
	assert.Equal(t, "alice", subject.Username)
	assert.True(t, CanCreate(subject.Capabilities, ResourceSurat))

	sess := shared.SessionFromContext(req.Context())
	ClearSubject(sess)
	_, ok = SubjectFromSession(sess)
	assert.False(t, ok)
}

func TestSubjectFromSessionRejectsForeignSnapshot(t *testing.T) {
	req := requestWithSubject(t, &Subject{UserID: 5, Username: "bob"})
	sess := shared.SessionFromContext(req.Context())
	sess.SetUser("6")
	_, ok := SubjectFromSession(sess)
	assert.False(t, ok)
}
