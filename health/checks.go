package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/datasentry/check"
)

// RegistryChecker reports the latest check results.
//
// Unhealthy when any check failed or errored, Degraded when nothing is
// loaded, Healthy otherwise. Pending and warning statuses do not affect
// readiness.
func RegistryChecker(reg *check.Registry) Checker {
	return NewCheckerFunc("checks", func(context.Context) Result {
		s := reg.Summary()
		details := map[string]any{
			"total":      s.Total,
			"successful": s.Successful,
			"failed":     s.Failed,
			"pending":    s.Pending,
			"other":      s.Other,
		}
		switch {
		case s.Total == 0:
			details["config"] = reg.ConfigStatus()
			return Degraded(ErrNoChecks.Error()).WithDetails(details)
		case s.Failed > 0:
			msg := fmt.Sprintf("%d of %d checks failed", s.Failed, s.Total)
			return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
		default:
			msg := fmt.Sprintf("%d of %d checks successful", s.Successful, s.Total)
			return Healthy(msg).WithDetails(details)
		}
	})
}

// Monitor is the view of the periodic timer a DaemonChecker needs.
type Monitor interface {
	DaemonEnabled() bool
	DaemonStatus() string
	Sweeping() bool
}

// DaemonChecker reports whether periodic monitoring is running. A stopped
// timer is Degraded.
func DaemonChecker(m Monitor) Checker {
	return NewCheckerFunc("daemon", func(context.Context) Result {
		details := map[string]any{"sweeping": m.Sweeping()}
		if !m.DaemonEnabled() {
			return Degraded("monitoring stopped").WithDetails(details)
		}
		return Healthy(m.DaemonStatus()).WithDetails(details)
	})
}
