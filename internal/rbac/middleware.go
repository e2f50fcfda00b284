package rbac

import (
	"log/slog"
	"net/http"

	"github.com/sistem-pejabat/pejabat/internal/platform/httpx"
	"github.com/sistem-pejabat/pejabat/internal/shared"
)

// Middleware wires authorization checks into HTTP routes. It reads the
// subject snapshot stored on the session at login.
type Middleware struct {
	Authorizer Authorizer
	Logger     *slog.Logger
}

// NewMiddleware builds a Middleware using the given legacy role table.
func NewMiddleware(legacy LegacyRoles, logger *slog.Logger) Middleware {
	return Middleware{Authorizer: NewAuthorizer(legacy), Logger: logger}
}

// Require ensures the current subject holds check.
func (m Middleware) Require(check Check) func(http.Handler) http.Handler {
	return m.guard("require", func(s Subject) bool { return m.Authorizer.Allowed(s, check) })
}

// RequireAny ensures the current subject holds at least one of checks.
func (m Middleware) RequireAny(checks ...Check) func(http.Handler) http.Handler {
	return m.guard("require any", func(s Subject) bool { return m.Authorizer.AllowedAny(s, checks) })
}

// RequireAll ensures the current subject holds every one of checks.
func (m Middleware) RequireAll(checks ...Check) func(http.Handler) http.Handler {
	return m.guard("require all", func(s Subject) bool { return m.Authorizer.AllowedAll(s, checks) })
}

// Authenticated only requires a signed-in subject.
func (m Middleware) Authenticated() func(http.Handler) http.Handler {
	return m.guard("authenticated", func(Subject) bool { return true })
}

func (m Middleware) guard(name string, allowed func(Subject) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := SubjectFromSession(shared.SessionFromContext(r.Context()))
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !allowed(subject) {
				if m.Logger != nil {
					m.Logger.Debug("rbac "+name+" denied",
						slog.Int64("user_id", subject.UserID),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentSubject returns the subject for the request, if any.
func CurrentSubject(r *http.Request) (Subject, bool) {
	return SubjectFromSession(shared.SessionFromContext(r.Context()))
}

// ActorID returns the id of the signed-in user, or zero.
func ActorID(r *http.Request) int64 {
	subject, _ := CurrentSubject(r)
	return subject.UserID
}
