package auth

import (
	"context"
	"errors"
	"net/http"
)

// Method names how an identity was authenticated.
type Method string

const (
	MethodAPIKey Method = "api_key"
	MethodJWT    Method = "jwt"
)

// Identity is an authenticated caller.
type Identity struct {
	Principal string
	Method    Method
}

// Authenticator validates the credentials carried by a request.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: credential problems are reported with the package sentinels.
type Authenticator interface {
	// Supports reports whether r carries credentials this authenticator
	// understands.
	Supports(r *http.Request) bool

	// Authenticate validates the credentials on r.
	Authenticate(r *http.Request) (Identity, error)
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by Require.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Require wraps next so it only runs for authenticated requests. With no
// authenticators next is returned unchanged.
func Require(next http.Handler, auths ...Authenticator) http.Handler {
	if len(auths) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := ErrMissingCredentials
		for _, a := range auths {
			if !a.Supports(r) {
				continue
			}
			id, authErr := a.Authenticate(r)
			if authErr == nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
				return
			}
			err = authErr
		}
		unauthorized(w, err)
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrMissingCredentials) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="datasentry"`)
	}
	http.Error(w, err.Error(), http.StatusUnauthorized)
}
