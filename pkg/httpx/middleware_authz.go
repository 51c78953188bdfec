package httpx

import (
	"errors"
	"net/http"
	"slices"
)

// ErrForbidden reports that an authenticated principal lacks the required
// permission or role.
var ErrForbidden = errors.New("httpx: permission denied")

// PermissionChecker answers whether any of the held roles grants the required
// permission. Implemented by the rbac registry; kept as an interface here so
// this package stays free of the registry's permission table.
type PermissionChecker interface {
	HasPermission(roles []string, required string) bool
}

// Authorize checks the principal's role claims against a required permission.
// Like Authenticate, it is callable on its own; RequirePermission composes it.
func Authorize(checker PermissionChecker, p Principal, required string) error {
	if !checker.HasPermission(p.Roles, required) {
		return ErrForbidden
	}
	return nil
}

// RequirePermission the caller's roles must grant the given permission.
// Must run after AuthnMiddleware.
func RequirePermission(checker PermissionChecker, required string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			if err := Authorize(checker, p, required); err != nil {
				writeForbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole the caller must hold at least one of the listed roles.
func RequireAnyRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := rolesFromCtx(r.Context())

			for _, role := range roles {
				if slices.Contains(have, role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeForbidden(w)
		})
	}
}

// The body never echoes which permission was missing.
func writeForbidden(w http.ResponseWriter) {
	WriteError(w, http.StatusForbidden, "permission_denied",
		"you do not have permission to perform this action")
}
