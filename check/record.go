package check

import (
	"sync"
	"time"
)

// Lifecycle statuses. Validated statuses come from Validate.
const (
	StatusPending = "Pending"
	StatusOngoing = "Ongoing"
	StatusError   = "Error"
)

// Record is one configured check plus its mutable run state.
//
// Contract:
//   - Concurrency: safe for concurrent use; readers should prefer Snapshot.
//   - Ownership: kind, description and params never change after load.
//     Run state is only mutated through Begin, Complete and Fail.
type Record struct {
	kind        Kind
	typeName    string
	description string
	params      Params

	mu        sync.RWMutex
	status    string
	result    any
	hasResult bool
	lastRunAt time.Time
	message   string
}

// NewRecord creates a pending record.
func NewRecord(typeName, description string, params Params) *Record {
	kind := KindUnknown
	if params != nil {
		kind = params.Kind()
	}
	return &Record{
		kind:        kind,
		typeName:    typeName,
		description: description,
		params:      params,
		status:      StatusPending,
	}
}

// Kind returns the check kind.
func (r *Record) Kind() Kind { return r.kind }

// Type returns the sentry_type exactly as configured.
func (r *Record) Type() string { return r.typeName }

// Description returns the human label.
func (r *Record) Description() string { return r.description }

// Params returns the typed parameter record.
func (r *Record) Params() Params { return r.params }

// Status returns the current status.
func (r *Record) Status() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Result returns the raw result of the last run, if any.
func (r *Record) Result() (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result, r.hasResult
}

// LastRunAt returns when the last run completed. Zero if never run.
func (r *Record) LastRunAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRunAt
}

// Message returns the fault message recorded by the last failed run.
func (r *Record) Message() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.message
}

// Begin moves the record to Ongoing. It returns false, leaving the record
// untouched, when a run is already in progress.
func (r *Record) Begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusOngoing {
		return false
	}
	r.status = StatusOngoing
	r.message = ""
	return true
}

// Complete attaches a raw result and its validated status.
func (r *Record) Complete(result any, status string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = result
	r.hasResult = true
	r.status = status
	r.lastRunAt = at
}

// Fail marks the run as faulted. Any previous result is kept.
func (r *Record) Fail(message string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusError
	r.message = message
	r.lastRunAt = at
}

// Snapshot is a point-in-time copy of a record.
type Snapshot struct {
	Kind        Kind      `json:"-"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Result      any       `json:"result"`
	HasResult   bool      `json:"-"`
	LastRunAt   time.Time `json:"lastRunAt,omitzero"`
	Message     string    `json:"message,omitempty"`
}

// Snapshot copies the record state.
func (r *Record) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Kind:        r.kind,
		Type:        r.kind.String(),
		Description: r.description,
		Status:      r.status,
		Result:      r.result,
		HasResult:   r.hasResult,
		LastRunAt:   r.lastRunAt,
		Message:     r.message,
	}
}
