package check

import "strings"

// Kind identifies which backend a check targets.
type Kind int

const (
	// KindUnknown is any sentry_type without a backend.
	KindUnknown Kind = iota
	// KindWarehouse checks run a query against a cloud data warehouse.
	KindWarehouse
	// KindRelational checks run a query against a SQL database.
	KindRelational
	// KindOrchestration checks inspect a data-orchestration service.
	KindOrchestration
	// KindIssueTracker checks run a search against an issue tracker.
	KindIssueTracker
)

// kindNames maps every accepted sentry_type, including legacy aliases.
var kindNames = map[string]Kind{
	"warehouse":     KindWarehouse,
	"snowflake":     KindWarehouse,
	"relational":    KindRelational,
	"sqlserver":     KindRelational,
	"orchestration": KindOrchestration,
	"adf":           KindOrchestration,
	"issue-tracker": KindIssueTracker,
	"jira":          KindIssueTracker,
}

// ParseKind resolves a sentry_type value. Matching is case-insensitive.
func ParseKind(s string) Kind {
	return kindNames[strings.ToLower(strings.TrimSpace(s))]
}

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindWarehouse:
		return "warehouse"
	case KindRelational:
		return "relational"
	case KindOrchestration:
		return "orchestration"
	case KindIssueTracker:
		return "issue-tracker"
	default:
		return "unknown"
	}
}

// Pooled reports whether adapters for this kind are shared across runs.
func (k Kind) Pooled() bool {
	return k == KindWarehouse || k == KindRelational
}
