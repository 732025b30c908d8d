package health

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonwraymond/datasentry/auth"
	"github.com/jonwraymond/datasentry/check"
	"github.com/jonwraymond/datasentry/export"
)

// Endpoints groups what RegisterHandlers serves. Nil fields drop their
// routes.
type Endpoints struct {
	Aggregator *Aggregator
	Registry   *check.Registry
	Metrics    http.Handler

	// Auth guards the routes that expose check details. Liveness,
	// readiness and metrics stay open.
	Auth []auth.Authenticator
}

// RegisterHandlers registers the status routes on mux.
func RegisterHandlers(mux *http.ServeMux, e Endpoints) {
	guard := func(h http.HandlerFunc) http.Handler { return auth.Require(h, e.Auth...) }

	mux.HandleFunc("GET /healthz", LivenessHandler())
	if e.Aggregator != nil {
		mux.HandleFunc("GET /readyz", ReadinessHandler(e.Aggregator))
		mux.Handle("GET /health", guard(DetailedHandler(e.Aggregator)))
	}
	if e.Registry != nil {
		mux.Handle("GET /checks", guard(ChecksHandler(e.Registry)))
		mux.Handle("GET /summary", guard(SummaryHandler(e.Registry)))
		mux.Handle("GET /export", guard(ExportHandler(e.Registry)))
	}
	if e.Metrics != nil {
		mux.Handle("GET /metrics", e.Metrics)
	}
}

// LivenessHandler answers 200 while the process serves requests.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler answers 503 when any checker is unhealthy.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := OverallStatus(agg.CheckAll(r.Context()))

		w.Header().Set("Content-Type", "text/plain")
		switch status {
		case StatusHealthy:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case StatusDegraded:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

// HealthResponse is the JSON body of the detailed endpoint.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON form of one checker result.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DetailedHandler reports every checker result as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := agg.CheckAll(r.Context())
		status := OverallStatus(results)

		resp := HealthResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(results)),
		}
		for name, res := range results {
			cr := CheckResponse{
				Status:   res.Status.String(),
				Message:  res.Message,
				Duration: res.Duration.String(),
				Details:  res.Details,
			}
			if res.Error != nil {
				cr.Error = res.Error.Error()
			}
			resp.Checks[name] = cr
		}

		code := http.StatusOK
		if status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// exportFormat reads ?format=, defaulting to JSON.
func exportFormat(r *http.Request) (export.Format, error) {
	name := r.URL.Query().Get("format")
	if name == "" {
		return export.FormatJSON, nil
	}
	return export.ParseFormat(name)
}
