package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lockhaven/identity/pkg/jwtx"
	"github.com/lockhaven/identity/pkg/slogx"
)

// ErrUnauthenticated subsumes every bearer-token failure: missing, malformed,
// bad signature, or expired. Callers are told nothing more specific.
var ErrUnauthenticated = errors.New("httpx: authentication failed")

// Principal is the identity established by a verified access token. It is
// built purely from token claims; authorization never goes back to the store.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
	Claims jwtx.Claims
}

// Authenticate extracts and verifies the bearer token on r. It is the
// standalone half of the guard: independently callable and testable, with
// AuthnMiddleware composing it into a handler chain.
func Authenticate(v jwtx.Verifier, r *http.Request) (Principal, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return Principal{}, ErrUnauthenticated
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

	claims, err := v.Verify(raw)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	return Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  claims.Roles,
		Claims: claims,
	}, nil
}

// AuthnMiddleware rejects requests without a valid bearer token and injects
// the Principal into the request context for downstream handlers.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			principal, err := Authenticate(v, r)
			if err != nil {
				log.Warn("bearer authentication failed", "err", err)
				writeBearerError(w, "invalid or missing bearer token")
				return
			}

			ctx = contextWithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, p.UserID)
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "authentication_failed", desc)
}
