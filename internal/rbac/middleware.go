package rbac

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/orgward/orgward/internal/platform/httpx"
	"github.com/orgward/orgward/internal/shared"
)

// SubjectLoader resolves the acting subject from an authenticated user id.
type SubjectLoader interface {
	LoadSubject(ctx context.Context, userID int64) (shared.Subject, error)
}

// Middleware gates HTTP handlers on capability membership. Structural scope
// checks stay in the services, where the target id is known; this layer only
// answers "does the subject hold the capability at all".
type Middleware struct {
	Resolver *Resolver
	Subjects SubjectLoader
	Logger   *slog.Logger
}

// RequireAny admits the request when the subject holds at least one of the
// given permission keys.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, false)
}

// Require admits the request only when the subject holds every given key.
func (m Middleware) Require(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, true)
}

func (m Middleware) require(perms []string, all bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok := shared.CurrentUserID(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			subject, err := m.Subjects.LoadSubject(r.Context(), userID)
			if err != nil {
				m.logError("load subject", err)
				if errors.Is(err, shared.ErrNotFound) {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
					return
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			granted, err := m.Resolver.EffectivePermissions(r.Context(), subject.RoleIDs)
			if err != nil {
				m.logError("effective permissions", err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if satisfied(granted, perms, all) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
		})
	}
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error("rbac middleware: "+msg, slog.Any("error", err))
	}
}

func satisfied(granted map[string]struct{}, required []string, all bool) bool {
	for _, key := range required {
		_, ok := granted[key]
		if ok && !all {
			return true
		}
		if !ok && all {
			return false
		}
	}
	return all
}
