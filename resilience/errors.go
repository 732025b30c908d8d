package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrSlotBusy is returned when no run slot frees up within MaxWait.
	ErrSlotBusy = errors.New("resilience: run slot busy")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)
