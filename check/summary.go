package check

import "strings"

// Summary holds aggregate counts over a registry.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Pending    int `json:"pending"`
	Other      int `json:"other"`

	SuccessfulPct float64 `json:"successfulPct"`
	FailedPct     float64 `json:"failedPct"`
	PendingPct    float64 `json:"pendingPct"`
}

// Classify buckets a status string for aggregation.
//
// Successful contains "Success"; failed contains "Failed" or "Error";
// pending is Pending or Ongoing. Anything else (warnings, unknown kinds)
// is Other.
func Classify(status string) Bucket {
	switch {
	case strings.Contains(status, "Success"):
		return BucketSuccessful
	case strings.Contains(status, "Failed"), strings.Contains(status, StatusError):
		return BucketFailed
	case status == StatusPending, status == StatusOngoing:
		return BucketPending
	default:
		return BucketOther
	}
}

// Bucket is an aggregation class of statuses.
type Bucket int

const (
	BucketOther Bucket = iota
	BucketSuccessful
	BucketFailed
	BucketPending
)

// Summarize computes aggregate counts over statuses.
func Summarize(statuses []string) Summary {
	s := Summary{Total: len(statuses)}
	for _, status := range statuses {
		switch Classify(status) {
		case BucketSuccessful:
			s.Successful++
		case BucketFailed:
			s.Failed++
		case BucketPending:
			s.Pending++
		default:
			s.Other++
		}
	}
	if s.Total > 0 {
		total := float64(s.Total)
		s.SuccessfulPct = float64(s.Successful) / total
		s.FailedPct = float64(s.Failed) / total
		s.PendingPct = float64(s.Pending) / total
	}
	return s
}

// Summary computes aggregate counts over the current records.
func (r *Registry) Summary() Summary {
	records := r.Records()
	statuses := make([]string, len(records))
	for i, rec := range records {
		statuses[i] = rec.Status()
	}
	return Summarize(statuses)
}
