package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// DefaultAPIKeyHeader carries the API key.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKeyConfig configures the API key authenticator.
type APIKeyConfig struct {
	// HeaderName defaults to DefaultAPIKeyHeader.
	HeaderName string
}

// APIKeyAuthenticator accepts any of a fixed set of keys. Only SHA-256
// digests of the keys are held.
type APIKeyAuthenticator struct {
	header  string
	digests [][sha256.Size]byte
}

// NewAPIKeyAuthenticator creates an authenticator for keys. Blank keys are
// ignored.
func NewAPIKeyAuthenticator(cfg APIKeyConfig, keys ...string) *APIKeyAuthenticator {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultAPIKeyHeader
	}
	a := &APIKeyAuthenticator{header: cfg.HeaderName}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			a.digests = append(a.digests, sha256.Sum256([]byte(k)))
		}
	}
	return a
}

// Supports implements Authenticator.
func (a *APIKeyAuthenticator) Supports(r *http.Request) bool {
	return r.Header.Get(a.header) != ""
}

// Authenticate implements Authenticator. Every stored digest is compared
// so the time taken does not depend on which key matched.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	key := strings.TrimSpace(r.Header.Get(a.header))
	if key == "" {
		return Identity{}, ErrMissingCredentials
	}
	sum := sha256.Sum256([]byte(key))

	match := 0
	for i := range a.digests {
		match |= subtle.ConstantTimeCompare(sum[:], a.digests[i][:])
	}
	if match != 1 {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Principal: "api-key", Method: MethodAPIKey}, nil
}
