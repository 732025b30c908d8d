package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/datasentry/check"
	"github.com/jonwraymond/datasentry/observe"
	"github.com/jonwraymond/datasentry/resilience"
)

// Triggers label what started a run.
const (
	TriggerSingle = "single"
	TriggerSweep  = "sweep"
	TriggerDaemon = "daemon"
)

// Defaults.
const (
	DefaultPause    = 100 * time.Millisecond
	DefaultInterval = time.Hour
)

const stampLayout = "2006-01-02 15:04:05"

// Progress reports one finished record.
type Progress struct {
	Index    int
	Trigger  string
	Snapshot check.Snapshot
	Summary  check.Summary

	// Completed and Total count sweep progress. Both are zero for
	// single runs.
	Completed int
	Total     int
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	// Total is the number of records when the sweep started.
	Total int `json:"total"`

	// Completed counts records that ran.
	Completed int `json:"completed"`

	// Skipped counts records already Ongoing.
	Skipped int `json:"skipped"`

	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Summary    check.Summary `json:"summary"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPause sets the pause between records of a sweep.
func WithPause(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.pause = d
		}
	}
}

// WithInterval sets the initial daemon interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l observe.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMiddleware wraps every record execution.
func WithMiddleware(m *observe.Middleware) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.mw = m
		}
	}
}

// WithClock sets the time source for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithProgress registers a callback invoked after every record run with
// the recomputed registry summary.
func WithProgress(fn func(Progress)) Option {
	return func(s *Scheduler) {
		s.progress = fn
	}
}

// Scheduler drives the per-record state machine
// Pending -> Ongoing -> validated status or Error.
//
// Contract:
//   - Concurrency: safe for concurrent use. One record executes at a time.
//   - Ownership: Close stops the daemon, waits for background runs and
//     disposes the dispatcher's pool.
//   - Errors: check failures are recorded on the record, never returned.
//     Returned errors mean the record did not run.
type Scheduler struct {
	registry *check.Registry
	dispatch *Dispatcher
	slot     *resilience.Slot
	mw       *observe.Middleware
	logger   observe.Logger
	pause    time.Duration
	now      func() time.Time
	progress func(Progress)

	sweeping atomic.Bool
	wg       sync.WaitGroup

	mu           sync.Mutex
	closed       bool
	interval     time.Duration
	stop         chan struct{}
	status       string
	daemonStatus string
}

// New creates a Scheduler over registry. A nil dispatcher gets the
// production router and a fresh pool.
func New(registry *check.Registry, d *Dispatcher, opts ...Option) *Scheduler {
	if d == nil {
		d = NewDispatcher(nil)
	}
	s := &Scheduler{
		registry: registry,
		dispatch: d,
		slot:     resilience.NewSlot(resilience.SlotConfig{Capacity: 1}),
		mw:       observe.NoopMiddleware(),
		logger:   observe.NopLogger(),
		pause:    DefaultPause,
		now:      time.Now,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry the scheduler drives.
func (s *Scheduler) Registry() *check.Registry {
	return s.registry
}

// StatusMessage returns the latest human-readable progress message.
func (s *Scheduler) StatusMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) setStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
}

// Sweeping reports whether a sweep is in progress.
func (s *Scheduler) Sweeping() bool {
	return s.sweeping.Load()
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// RunOne runs rec to completion, waiting for the run slot first.
func (s *Scheduler) RunOne(ctx context.Context, rec *check.Record) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := s.safeRun(ctx, rec, s.indexOf(rec), TriggerSingle, 0, 0); err != nil {
		return err
	}
	if detail, failed := errorDetail(rec); failed {
		s.setStatus(fmt.Sprintf("Error checking %s: %s", rec.Type(), detail))
	} else {
		s.setStatus(fmt.Sprintf("Checked %s at %s", rec.Description(), s.now().Format(stampLayout)))
	}
	return nil
}

// errorDetail reports whether rec ended in an error, either a dispatch
// fault or an "Error - ..." result, and describes it.
func errorDetail(rec *check.Record) (string, bool) {
	if msg := rec.Message(); msg != "" {
		return msg, true
	}
	status := rec.Status()
	if !strings.HasPrefix(status, check.StatusError) {
		return "", false
	}
	if detail := strings.TrimPrefix(strings.TrimPrefix(status, check.StatusError), " - "); detail != "" {
		return detail, true
	}
	return status, true
}

// RunIndex runs the record at position i.
func (s *Scheduler) RunIndex(ctx context.Context, i int) error {
	rec, err := s.registry.At(i)
	if err != nil {
		return err
	}
	return s.RunOne(ctx, rec)
}

// Submit starts RunOne in the background. The channel receives its
// result and is then closed.
func (s *Scheduler) Submit(ctx context.Context, rec *check.Record) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		done <- ErrClosed
		close(done)
		return done
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer close(done)
		done <- s.RunOne(ctx, rec)
	}()
	return done
}

// RunAll runs every record in registry order, one at a time. Records
// already Ongoing are skipped. Cancelling ctx stops the sweep before the
// next record.
func (s *Scheduler) RunAll(ctx context.Context) (SweepReport, error) {
	return s.sweep(ctx, TriggerSweep)
}

func (s *Scheduler) sweep(ctx context.Context, trigger string) (SweepReport, error) {
	var report SweepReport
	if s.isClosed() {
		return report, ErrClosed
	}
	if !s.sweeping.CompareAndSwap(false, true) {
		return report, ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	records := s.registry.Records()
	report.Total = len(records)
	report.StartedAt = s.now()

	runnable := 0
	for _, rec := range records {
		if rec.Status() != check.StatusOngoing {
			runnable++
		}
	}

	log := s.logger.With(observe.Field{Key: "trigger", Value: trigger})
	log.Info(ctx, "sweep started", observe.Field{Key: "checks", Value: report.Total})
	s.setStatus("Running all checks...")

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, log, report, err)
		}
		if rec.Status() == check.StatusOngoing {
			report.Skipped++
			continue
		}

		err := s.safeRun(ctx, rec, i, trigger, report.Completed+1, runnable)
		switch {
		case errors.Is(err, ErrRecordBusy):
			report.Skipped++
			continue
		case err != nil:
			return s.finish(ctx, log, report, err)
		}

		report.Completed++
		s.setStatus(fmt.Sprintf("Completed %d of %d checks...", report.Completed, runnable))

		if i < len(records)-1 {
			if err := s.wait(ctx); err != nil {
				return s.finish(ctx, log, report, err)
			}
		}
	}

	s.setStatus("All checks completed at " + s.now().Format(stampLayout))
	return s.finish(ctx, log, report, nil)
}

func (s *Scheduler) finish(ctx context.Context, log observe.Logger, report SweepReport, err error) (SweepReport, error) {
	report.FinishedAt = s.now()
	report.Summary = s.registry.Summary()

	fields := []observe.Field{
		{Key: "completed", Value: report.Completed},
		{Key: "skipped", Value: report.Skipped},
		{Key: "failed", Value: report.Summary.Failed},
		{Key: "duration_ms", Value: report.FinishedAt.Sub(report.StartedAt).Milliseconds()},
	}
	if err != nil {
		s.setStatus(fmt.Sprintf("Sweep stopped after %d of %d checks: %v", report.Completed, report.Total, err))
		log.Warn(ctx, "sweep stopped", append(fields, observe.Field{Key: "error", Value: err})...)
		return report, err
	}
	log.Info(ctx, "sweep completed", fields...)
	return report, nil
}

func (s *Scheduler) wait(ctx context.Context) error {
	if s.pause <= 0 {
		return nil
	}
	t := time.NewTimer(s.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// safeRun runs one record and converts any escaped panic into an Error
// status so the record never stays Ongoing.
func (s *Scheduler) safeRun(ctx context.Context, rec *check.Record, index int, trigger string, completed, total int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic: %v", r)
			if rec.Status() == check.StatusOngoing {
				rec.Fail(msg, s.now())
			}
			s.logger.Error(ctx, "check run panicked", observe.Field{Key: "index", Value: index}, observe.Field{Key: "error", Value: msg})
		}
	}()
	return s.run(ctx, rec, index, trigger, completed, total)
}

func (s *Scheduler) run(ctx context.Context, rec *check.Record, index int, trigger string, completed, total int) error {
	if err := s.slot.Acquire(ctx); err != nil {
		return err
	}
	defer s.slot.Release()

	if !rec.Begin() {
		return ErrRecordBusy
	}

	meta := observe.CheckMeta{
		Kind:        rec.Kind().String(),
		Description: rec.Description(),
		Index:       index,
		Trigger:     trigger,
	}
	exec := s.mw.Wrap(func(ctx context.Context, _ observe.CheckMeta) (string, error) {
		return s.execute(ctx, rec)
	})
	_, _ = exec(ctx, meta)

	if s.progress != nil {
		s.progress(Progress{
			Index:     index,
			Trigger:   trigger,
			Snapshot:  rec.Snapshot(),
			Summary:   s.registry.Summary(),
			Completed: completed,
			Total:     total,
		})
	}
	return nil
}

// execute dispatches rec and records the outcome. The returned error is
// for telemetry only.
func (s *Scheduler) execute(ctx context.Context, rec *check.Record) (status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			status = s.fault(rec, err)
		}
	}()

	if rec.Params() == nil {
		err = fmt.Errorf("%w: %s", check.ErrUnknownKind, rec.Type())
		return s.fault(rec, err), err
	}

	out, err := s.dispatch.Dispatch(ctx, rec.Params())
	if err != nil {
		return s.fault(rec, err), err
	}

	doc := out.Result.Document()
	status = check.Validate(rec.Kind(), doc)
	rec.Complete(doc, status, s.now())

	if out.Result.Failure != nil {
		return status, out.Result.Failure
	}
	return status, nil
}

func (s *Scheduler) fault(rec *check.Record, err error) string {
	rec.Fail(err.Error(), s.now())
	return check.StatusError
}

func (s *Scheduler) indexOf(rec *check.Record) int {
	for i, r := range s.registry.Records() {
		if r == rec {
			return i
		}
	}
	return -1
}

// Close stops the daemon, waits for background runs and disposes every
// pooled adapter. It is idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	return s.dispatch.Close()
}
