package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/datasentry/observe"
)

// EnableDaemon starts sweeping the registry every interval. A zero
// interval keeps the current one. Enabling an enabled daemon is a no-op;
// use SetInterval to change the period.
func (s *Scheduler) EnableDaemon(interval time.Duration) error {
	if interval < 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.stop != nil {
		return nil
	}
	if interval > 0 {
		s.interval = interval
	}
	s.startDaemonLocked()
	return nil
}

// DisableDaemon stops the timer. A sweep already running finishes.
func (s *Scheduler) DisableDaemon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
	s.daemonStatus = "Monitoring stopped"
	s.logger.Info(context.Background(), "daemon disabled")
}

// SetInterval changes the daemon period. An enabled daemon restarts its
// timer with the new period.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.interval = d
	if s.stop != nil {
		close(s.stop)
		s.startDaemonLocked()
	}
	return nil
}

// DaemonEnabled reports whether the timer is running.
func (s *Scheduler) DaemonEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Interval returns the daemon period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// DaemonStatus returns the daemon's latest status line, including the
// error of the last timer-triggered sweep if it failed.
func (s *Scheduler) DaemonStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.daemonStatus
}

func (s *Scheduler) setDaemonStatus(msg string) {
	s.mu.Lock()
	s.daemonStatus = msg
	s.mu.Unlock()
}

func (s *Scheduler) startDaemonLocked() {
	stop := make(chan struct{})
	s.stop = stop
	interval := s.interval
	s.daemonStatus = "Monitoring every " + IntervalText(interval)

	s.wg.Add(1)
	go s.daemonLoop(stop, interval)

	s.logger.Info(context.Background(), "daemon enabled", observe.Field{Key: "interval", Value: interval.String()})
}

func (s *Scheduler) daemonLoop(stop <-chan struct{}, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			s.daemonSweep(interval)
		}
	}
}

// daemonSweep runs one timer-triggered sweep. Stopping the daemon does not
// cancel it; failures and panics become the daemon status.
func (s *Scheduler) daemonSweep(interval time.Duration) {
	ctx := context.Background()
	text := IntervalText(interval)

	defer func() {
		if r := recover(); r != nil {
			s.setDaemonStatus(fmt.Sprintf("Monitoring every %s, last sweep failed: %v", text, r))
			s.logger.Error(ctx, "daemon sweep panicked", observe.Field{Key: "error", Value: fmt.Sprint(r)})
		}
	}()

	report, err := s.sweep(ctx, TriggerDaemon)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		s.setDaemonStatus(fmt.Sprintf("Monitoring every %s, skipped a sweep already in progress", text))
		s.logger.Warn(ctx, "daemon sweep skipped", observe.Field{Key: "error", Value: err})
	case err != nil:
		s.setDaemonStatus(fmt.Sprintf("Monitoring every %s, last sweep failed: %v", text, err))
		s.logger.Error(ctx, "daemon sweep failed", observe.Field{Key: "error", Value: err})
	default:
		s.setDaemonStatus(fmt.Sprintf("Monitoring every %s, last sweep %s: %d of %d failed",
			text, report.FinishedAt.Format(stampLayout), report.Summary.Failed, report.Summary.Total))
	}
}

// IntervalText renders an interval for status display, e.g. "1.0 hours",
// "5 minutes" or "30 seconds".
func IntervalText(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%.1f hours", d.Hours())
	case d >= time.Minute:
		return fmt.Sprintf("%.0f minutes", d.Minutes())
	default:
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	}
}
