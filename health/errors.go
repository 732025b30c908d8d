package health

import "errors"

var (
	// ErrCheckFailed indicates one or more configured checks failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoChecks indicates the registry holds no configured checks.
	ErrNoChecks = errors.New("health: no checks loaded")
)
