package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// JWTConfig configures the bearer token authenticator.
type JWTConfig struct {
	// Secret is the HMAC signing key.
	Secret []byte

	// Issuer is the expected iss claim. Empty accepts any issuer.
	Issuer string

	// Audience is the expected aud claim. Empty accepts any audience.
	Audience string
}

// JWTAuthenticator validates HMAC-signed bearer tokens. Tokens must carry
// an exp claim.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a bearer token authenticator.
func NewJWTAuthenticator(cfg JWTConfig) *JWTAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWTAuthenticator{secret: cfg.Secret, parser: jwt.NewParser(opts...)}
}

// Supports implements Authenticator.
func (a *JWTAuthenticator) Supports(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Authorization"), bearerPrefix)
}

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || strings.TrimSpace(raw) == "" {
		return Identity{}, ErrMissingCredentials
	}

	var claims jwt.RegisteredClaims
	_, err := a.parser.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Identity{}, ErrTokenMalformed
	default:
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{Principal: claims.Subject, Method: MethodJWT}, nil
}
