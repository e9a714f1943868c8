// Package auth derives the caller identity from headers set by the authenticating proxy.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/creativecanvas/backend/internal/logging"
	"github.com/creativecanvas/backend/internal/models"
)

const (
	HeaderUserID    = "X-Goog-Authenticated-User-Id"
	HeaderUserEmail = "X-Goog-Authenticated-User-Email"

	providerPrefix = "accounts.google.com:"
	unknownEmail   = "unknown"
)

// Guest is the shared identity of callers that arrive without proxy headers.
var Guest = models.User{ID: "guest", Email: "guest@example.com"}

type ctxKey struct{}

// FromRequest reads the proxy headers. Without a user id header the caller is Guest.
func FromRequest(r *http.Request) models.User {
	id := strings.TrimSpace(strings.TrimPrefix(r.Header.Get(HeaderUserID), providerPrefix))
	if id == "" {
		return Guest
	}

	email := strings.TrimSpace(strings.TrimPrefix(r.Header.Get(HeaderUserEmail), providerPrefix))
	if email == "" {
		email = unknownEmail
	}
	return models.User{ID: id, Email: email}
}

// WithUser stores the caller on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the caller stored by WithUser, or Guest.
func UserFromContext(ctx context.Context) models.User {
	if user, ok := ctx.Value(ctxKey{}).(models.User); ok {
		return user
	}
	return Guest
}

// Middleware resolves the caller once per request and tags the request logger with it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := FromRequest(r)
		ctx := WithUser(r.Context(), user)
		ctx = logging.WithUserID(ctx, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
