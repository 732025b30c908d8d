package check

import "errors"

var (
	// ErrConfigParse indicates the configuration text is not well-formed.
	ErrConfigParse = errors.New("check: configuration is not well-formed")

	// ErrMissingParameter indicates a required check parameter is absent.
	ErrMissingParameter = errors.New("check: missing required parameter")

	// ErrUnknownKind indicates a check kind has no backend.
	ErrUnknownKind = errors.New("check: unknown check kind")

	// ErrIndexOutOfRange indicates a registry index does not exist.
	ErrIndexOutOfRange = errors.New("check: index out of range")
)
