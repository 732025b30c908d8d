package health

import (
	"context"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component works but needs attention, for
	// example a registry with no checks or a stopped monitor.
	StatusDegraded
	// StatusUnhealthy indicates the component reports a failure, such as a
	// check whose last run failed or errored.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of one health check.
type Result struct {
	// Status is the health status.
	Status Status

	// Message is the human-readable summary, for example the registry
	// counts or the daemon's status line.
	Message string

	// Details carries the structured counts behind Message. It is served
	// verbatim in the JSON report.
	Details map[string]any

	// Duration is how long the check took. The Aggregator fills it in.
	Duration time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Error is set for unhealthy results.
	Error error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{
		Status:    StatusDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{
		Status:    StatusUnhealthy,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// WithDetails attaches structured details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration records how long the check took.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker is implemented by every component the Aggregator reports on.
type Checker interface {
	// Name identifies the component in the report, such as "registry" or
	// "daemon".
	Name() string

	// Check inspects the component. It must honor ctx; the Aggregator
	// reports a timeout when ctx ends first.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a Checker named name that runs fn.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check runs the wrapped function.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
