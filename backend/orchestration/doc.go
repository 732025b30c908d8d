// Package orchestration checks an Azure Data Factory for failed pipeline
// runs and reports the node status of its self-hosted integration runtimes.
//
// Each Execute makes two independent groups of management API calls:
//
//   - queryPipelineRuns, filtered to Failed runs inside the lookback window
//     and paged by continuation token, plus queryActivityruns per failed run
//   - integration runtime enumeration and getStatus per self-hosted runtime
//
// A failure in one group is recorded inside its section of the summary and
// never aborts the other. The summary has the shape
//
//	{
//	  "failures":   {"totalFailures": 2, "timeRange": "Past 24 hours", "runDetail": [...]},
//	  "shirStatus": {"integrationRuntimes": [...], "count": 1, ...},
//	  "timeGenerated":      "2026-01-02T03:04:05Z",
//	  "localTimeGenerated": "2026-01-02 05:04:05"
//	}
//
// Adapters are not pooled; the scheduler builds one per run and closes it
// afterwards.
package orchestration
