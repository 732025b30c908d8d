package secret

import "errors"

var (
	// ErrMissingEnv is returned when a ${VAR} reference names an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrProviderNotRegistered is returned for a reference to an unknown provider.
	ErrProviderNotRegistered = errors.New("secret: provider not registered")

	// ErrInvalidRef is returned for a malformed reference or registration.
	ErrInvalidRef = errors.New("secret: invalid reference")

	// ErrEmptySecret is returned by a strict resolver when a provider yields "".
	ErrEmptySecret = errors.New("secret: provider returned empty value")
)
