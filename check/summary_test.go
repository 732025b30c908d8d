package check

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]string{
		StatusPending,
		StatusOngoing,
		StatusNoDataIssues,
		StatusInvestigateRecords,
		StatusError,
		ErrorStatus("timeout"),
		StatusFailureCountUnknown,
		StatusUnknownKind,
	})

	if s.Total != 8 {
		t.Errorf("Total = %d, want 8", s.Total)
	}
	if s.Successful != 1 {
		t.Errorf("Successful = %d, want 1", s.Successful)
	}
	if s.Failed != 3 {
		t.Errorf("Failed = %d, want 3", s.Failed)
	}
	if s.Pending != 2 {
		t.Errorf("Pending = %d, want 2", s.Pending)
	}
	if s.Other != 2 {
		t.Errorf("Other = %d, want 2", s.Other)
	}
	if s.FailedPct != 3.0/8.0 {
		t.Errorf("FailedPct = %v, want %v", s.FailedPct, 3.0/8.0)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.SuccessfulPct != 0 || s.FailedPct != 0 || s.PendingPct != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero value", s)
	}
}

func TestRegistry_Summary(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.Load(`[
		{"sentry_type":"warehouse","account":"a","query":"q"},
		{"sentry_type":"warehouse","account":"a","query":"q"}
	]`)

	rec, _ := reg.At(0)
	rec.Complete([]any{}, StatusNoDataIssues, time.Now())

	s := reg.Summary()
	if s.Successful != 1 || s.Pending != 1 {
		t.Errorf("Summary() = %+v, want 1 successful and 1 pending", s)
	}
	if s.SuccessfulPct != 0.5 {
		t.Errorf("SuccessfulPct = %v, want 0.5", s.SuccessfulPct)
	}
}
