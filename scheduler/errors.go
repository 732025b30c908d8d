package scheduler

import "errors"

var (
	// ErrSweepInProgress indicates a sweep was requested while another is running.
	ErrSweepInProgress = errors.New("scheduler: sweep already in progress")

	// ErrRecordBusy indicates the record is already Ongoing.
	ErrRecordBusy = errors.New("scheduler: check is already running")

	// ErrClosed indicates the scheduler has been closed.
	ErrClosed = errors.New("scheduler: closed")

	// ErrInvalidInterval indicates a non-positive daemon interval.
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")

	// ErrNoRoute indicates no adapter serves the check kind.
	ErrNoRoute = errors.New("scheduler: no adapter for check kind")
)
