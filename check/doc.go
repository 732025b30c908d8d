// Package check holds the check model: configured checks, their run state,
// the ordered registry they live in, and the rule table that turns a raw
// backend result into a human-facing status.
//
// # Configuration
//
// Checks are declared as a JSON array. Each element carries a "sentry_type"
// discriminator, a "description" and kind-specific parameters:
//
//	[
//	  {"sentry_type": "warehouse", "description": "orphan orders",
//	   "account": "acme-eu", "user": "svc", "password": "${SF_PASSWORD}",
//	   "warehouse": "CHECKS_WH", "role": "MONITOR", "query": "SELECT ..."},
//	  {"sentry_type": "issue-tracker", "description": "open P1s",
//	   "server": "https://acme.atlassian.net", "username": "ops@acme.io",
//	   "token": "secretref:env:JIRA_TOKEN", "jql": "priority = P1"}
//	]
//
// The names used by earlier deployments (snowflake, sqlserver, adf, jira and
// keys such as sql_query or jql_query) are accepted as aliases.
//
// # Registry
//
//	reg := check.NewRegistry()
//	report, err := reg.Load(text)
//	if err != nil {
//	    log.Printf("config rejected: %v (%s)", err, reg.ConfigStatus())
//	}
//	for _, w := range report.Warnings {
//	    log.Printf("skipped check %d: %s", w.Index, w.Reason)
//	}
//
// Reloading identical text is a no-op, so in-flight run state survives
// redundant reloads.
//
// # Validation
//
// Validate maps a kind and a raw result to one of the status strings in the
// rule table (StatusNoDataIssues, StatusInvestigateRecords, ...). It never
// panics; a malformed result yields an "Error - ..." status.
package check
