package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/golang-jwt/jwt/v5"
)

// Scope is the OAuth scope of the management API.
const Scope = "https://management.azure.com/.default"

// DefaultTokenLifetime is assumed for tokens whose expiry cannot be read.
const DefaultTokenLifetime = 55 * time.Minute

// TokenSource supplies bearer tokens for the management API.
type TokenSource interface {
	Token(ctx context.Context) (token string, expires time.Time, err error)
}

type credentialSource struct {
	cred azcore.TokenCredential
}

// NewCredentialSource wraps an Azure credential.
func NewCredentialSource(cred azcore.TokenCredential) TokenSource {
	return credentialSource{cred: cred}
}

// NewDefaultCredentialSource uses the ambient credential chain: environment,
// workload identity, managed identity and developer tool logins.
func NewDefaultCredentialSource() (TokenSource, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("orchestration: default credential: %w", err)
	}
	return credentialSource{cred: cred}, nil
}

func (s credentialSource) Token(ctx context.Context) (string, time.Time, error) {
	tk, err := s.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		return "", time.Time{}, err
	}
	return tk.Token, tk.ExpiresOn, nil
}

// StaticToken is a pre-issued bearer token.
type StaticToken string

// Token implements TokenSource. The expiry is read from the exp claim when
// the token is a JWT.
func (s StaticToken) Token(context.Context) (string, time.Time, error) {
	if s == "" {
		return "", time.Time{}, ErrNoToken
	}
	return string(s), TokenExpiry(string(s), time.Now()), nil
}

// TokenExpiry returns the exp claim of a JWT without verifying its
// signature, or now plus DefaultTokenLifetime for opaque tokens.
func TokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return now.Add(DefaultTokenLifetime)
}
