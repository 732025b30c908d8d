package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonwraymond/datasentry/check"
)

// Adapter executes checks against one external system.
//
// Contract:
//   - Concurrency: Execute calls against one adapter must be serialized by
//     the caller; status accessors are safe for concurrent use.
//   - Context: Execute honors cancellation of ctx where the driver allows.
//   - Errors: Execute never panics; failures are returned in Result.
//   - Ownership: Close releases the connection, is idempotent and safe to
//     call more than once.
type Adapter interface {
	// Execute runs the check described by params.
	Execute(ctx context.Context, params check.Params) Result

	// State returns the connection state.
	State() ConnState

	// ConnectionStatus returns a human-readable connection message.
	ConnectionStatus() string

	// IsConnected reports whether the last open succeeded.
	IsConnected() bool

	// Close releases the underlying connection or session.
	Close() error
}

// Factory constructs an adapter for the pool.
type Factory func() (Adapter, error)

// ConnState is the lifecycle state of an adapter's connection.
type ConnState int

const (
	// StateUnopened means no connection attempt has been made yet.
	StateUnopened ConnState = iota
	// StateOpen means the connection is established.
	StateOpen
	// StateFailed means the last open attempt failed.
	StateFailed
)

// String returns the name of the state.
func (s ConnState) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureClass classifies a backend failure.
type FailureClass string

const (
	// ClassConnection means the connection could not be opened or reused.
	ClassConnection FailureClass = "connection"
	// ClassAuth means credentials were rejected or could not be obtained.
	ClassAuth FailureClass = "auth"
	// ClassExecution means the backend answered with an error.
	ClassExecution FailureClass = "execution"
	// ClassParameters means the adapter received unusable parameters.
	ClassParameters FailureClass = "parameters"
)

// Failure describes why an Execute call did not produce data.
type Failure struct {
	Class   FailureClass
	Message string
	Details string
}

// Error implements error.
func (f *Failure) Error() string {
	return fmt.Sprintf("backend: %s: %s", f.Class, f.Message)
}

// Result is the outcome of Execute.
type Result struct {
	// Data is a JSON-compatible document: []map[string]any for query
	// adapters, map[string]any for summary adapters.
	Data any

	// Failure is set when the call failed.
	Failure *Failure
}

// Success wraps a result document.
func Success(data any) Result {
	return Result{Data: data}
}

// Fail builds a failed result from err.
func Fail(class FailureClass, err error) Result {
	f := &Failure{Class: class, Message: "unknown error"}
	if err != nil {
		f.Message = err.Error()
		if unwrapped := errors.Unwrap(err); unwrapped != nil {
			f.Details = fmt.Sprintf("%+v", unwrapped)
		}
	}
	return Result{Failure: f}
}

// Document returns the raw document recorded on a check. Failed results
// render as {"error": true, "message": ..., "errorType": ...}.
func (r Result) Document() any {
	if r.Failure == nil {
		return r.Data
	}
	return ErrorDocument(r.Failure)
}

// ErrorDocument renders a failure as a result document.
func ErrorDocument(f *Failure) map[string]any {
	doc := map[string]any{
		"error":     true,
		"message":   f.Message,
		"errorType": string(f.Class),
	}
	if f.Details != "" {
		doc["details"] = f.Details
	}
	return doc
}

// Conn tracks the connectivity observables of an adapter. Embed it to get
// State, ConnectionStatus and IsConnected.
type Conn struct {
	mu     sync.RWMutex
	state  ConnState
	status string
}

// State implements Adapter.
func (c *Conn) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ConnectionStatus implements Adapter.
func (c *Conn) ConnectionStatus() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// IsConnected implements Adapter.
func (c *Conn) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateOpen
}

// SetState updates both observables.
func (c *Conn) SetState(state ConnState, status string) {
	c.mu.Lock()
	c.state = state
	c.status = status
	c.mu.Unlock()
}

// SetStatus updates the status message without changing the state.
func (c *Conn) SetStatus(status string) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}
