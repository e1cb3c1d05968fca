package rbac

import (
	"log/slog"
	"net/http"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers. The role is
// re-derived from the server-side session on every request.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current user holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if !identity.Valid() {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, perm := range perms {
				if HasPermission(identity.Role, perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("permission denied",
					slog.String("role", string(identity.Role)),
					slog.String("path", r.URL.Path))
			}
			httpx.Error(w, http.StatusForbidden, "forbidden")
		})
	}
}

// RequireAll ensures the current user holds every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if !identity.Valid() {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, perm := range perms {
				if !HasPermission(identity.Role, perm) {
					httpx.Error(w, http.StatusForbidden, "forbidden")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
