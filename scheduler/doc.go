// Package scheduler drives check execution.
//
// A Dispatcher turns one check record into one adapter call: it resolves
// credential references, finds or builds the adapter (pooled per target
// for warehouse and relational checks, fresh per run otherwise) and
// converts connection failures into pool evictions.
//
// A Scheduler owns the run state machine. Every record execution, whether
// started by RunOne, Submit, RunAll or the daemon timer, holds a single
// run slot, so no two checks ever execute at the same time. At most one
// sweep is active; an overlapping sweep request fails with
// ErrSweepInProgress. Daemon mode triggers a sweep on a fixed interval;
// disabling it stops the timer without interrupting an in-flight sweep.
package scheduler
