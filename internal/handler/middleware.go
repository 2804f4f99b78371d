package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/tehorna/checkout-api/internal/domain/auth"
)

type userContextKey struct{}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	return ""
}

// withOptionalUser resolves a session token when one is presented. Guests
// pass through with no user in context; an invalid token is treated the same
// as no token, since checkout works for guests anyway.
func (h *Handler) withOptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if u, err := h.auth.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userContextKey{}, u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects requests without a valid admin session. 401 for a
// missing/invalid session, 403 for a valid session lacking the role.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := h.auth.RequireAdmin(r.Context(), bearerToken(r))
		if err != nil {
			mapDomainError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the authenticated user, or nil for guests.
func userFromContext(ctx context.Context) *auth.User {
	u, _ := ctx.Value(userContextKey{}).(*auth.User)
	return u
}

// userIDFromContext returns the authenticated user's id, or "" for guests.
func userIDFromContext(ctx context.Context) string {
	if u := userFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}
