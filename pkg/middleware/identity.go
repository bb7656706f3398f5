// Package middleware provides the HTTP middleware chain: request IDs,
// structured request logging, panic recovery, and identity resolution.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/openhearth/hearth/pkg/auth"
	"github.com/openhearth/hearth/pkg/contextkeys"
	"github.com/openhearth/hearth/pkg/httputil"
	"github.com/openhearth/hearth/pkg/identity"
	"github.com/openhearth/hearth/pkg/model"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

var _ Authenticator = (*auth.Service)(nil)

// Identity builds a fresh identity context for every request and stores it in
// the request context. With a valid bearer token the context carries the
// actor; without one it is anonymous. Nothing is cached across requests.
func Identity(authn Authenticator, reader identity.TrustedReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var actor *model.User
			if token := bearerToken(r); token != "" {
				user, err := authn.Authenticate(ctx, token)
				if err != nil {
					httputil.WriteUnauthorized(w, "invalid or expired token")
					return
				}
				actor = user
				ctx = contextkeys.WithToken(ctx, token)
			}

			ctx = contextkeys.WithIdentity(ctx, identity.New(actor, reader))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests whose identity context has no actor. It must
// run after Identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idc := IdentityFrom(r.Context())
		if idc == nil || !idc.Authenticated() {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFrom extracts the identity context set by Identity, or nil.
func IdentityFrom(ctx context.Context) *identity.Context {
	idc, _ := ctx.Value(contextkeys.IdentityKey).(*identity.Context)
	return idc
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
