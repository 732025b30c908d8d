// Package health exposes the monitor's own state over HTTP.
//
// A Checker reports the state of one part of the running monitor as
// Healthy, Degraded or Unhealthy. RegistryChecker reflects the latest check
// results and DaemonChecker reflects the periodic timer. An Aggregator
// combines checkers into a single overall status.
//
// # HTTP Endpoints
//
// RegisterHandlers wires the standard routes onto a mux:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, health.Endpoints{
//	    Aggregator: agg,
//	    Registry:   reg,
//	    Metrics:    obs.MetricsHandler(),
//	    Auth:       []auth.Authenticator{apiKeys},
//	})
//
//   - /healthz   liveness, always 200 while the process serves requests
//   - /readyz    503 when any checker is unhealthy
//   - /health    detailed checker results as JSON
//   - /checks    snapshot of every configured check
//   - /summary   aggregate counts
//   - /export    results as CSV or JSON (?format=csv|json)
//   - /metrics   Prometheus exposition, when a handler is supplied
//
// When Auth is set, /health, /checks, /summary and /export require
// credentials.
package health
