package orchestration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/datasentry/backend"
	"github.com/jonwraymond/datasentry/check"
)

const (
	localLayout  = "2006-01-02 15:04:05"
	queryLayout  = "2006-01-02T15:04:05Z"
	tokenSkew    = 5 * time.Minute
	httpTimeout  = 60 * time.Second
	detailFailed = "Failed to retrieve"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for management API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.http = c
		}
	}
}

// WithTokenSource overrides token acquisition.
func WithTokenSource(ts TokenSource) Option {
	return func(a *Adapter) {
		a.tokens = ts
	}
}

// WithClock sets the time source used for query windows and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// Adapter checks one data factory per Execute.
type Adapter struct {
	backend.Conn

	http   *http.Client
	tokens TokenSource
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
	closed  bool
}

// New creates an unauthenticated adapter. Without WithTokenSource the
// check's static token is used when present, otherwise the default
// credential chain.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		http: &http.Client{Timeout: httpTimeout},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.SetState(backend.StateUnopened, "Not connected")
	return a
}

// Factory returns a constructor bound to opts.
func Factory(opts ...Option) backend.Factory {
	return func() (backend.Adapter, error) {
		return New(opts...), nil
	}
}

// Execute implements backend.Adapter.
func (a *Adapter) Execute(ctx context.Context, params check.Params) backend.Result {
	p, ok := params.(check.OrchestrationParams)
	if !ok {
		return backend.Fail(backend.ClassParameters, fmt.Errorf("%w: %T", backend.ErrWrongParams, params))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return backend.Fail(backend.ClassConnection, backend.ErrClosed)
	}

	token, err := a.accessToken(ctx, p)
	if err != nil {
		a.SetState(backend.StateFailed, fmt.Sprintf("Authentication failed: %v", err))
		return backend.Fail(backend.ClassAuth, err)
	}
	a.SetState(backend.StateOpen, "Authentication successful")

	c := &factoryClient{
		http:  a.http,
		base:  factoryURL(p.Endpoint, p.SubscriptionID, p.ResourceGroup, p.Factory),
		token: token,
	}
	now := a.now().UTC()
	local := now.Add(time.Duration(p.TimezoneDelta) * time.Hour)

	var (
		g        errgroup.Group
		failures map[string]any
		shir     map[string]any
	)
	g.Go(func() error {
		failures = pipelineFailures(ctx, c, p, now)
		return nil
	})
	g.Go(func() error {
		shir = shirStatus(ctx, c, p, now, local)
		return nil
	})
	_ = g.Wait()

	if msg, failed := failures["message"].(string); failed && failures["error"] == true {
		a.SetStatus("Query failed: " + msg)
	} else {
		a.SetStatus("Retrieved factory status")
	}

	return backend.Success(map[string]any{
		"failures":           failures,
		"shirStatus":         shir,
		"timeGenerated":      now.Format(time.RFC3339Nano),
		"localTimeGenerated": local.Format(localLayout),
	})
}

func (a *Adapter) accessToken(ctx context.Context, p check.OrchestrationParams) (string, error) {
	if a.token != "" && a.now().Before(a.expires.Add(-tokenSkew)) {
		return a.token, nil
	}

	if a.tokens == nil {
		if p.Token != "" {
			a.tokens = StaticToken(p.Token)
		} else {
			ts, err := NewDefaultCredentialSource()
			if err != nil {
				return "", err
			}
			a.tokens = ts
		}
	}

	token, expires, err := a.tokens.Token(ctx)
	if err != nil {
		a.token = ""
		return "", err
	}
	a.token, a.expires = token, expires
	return token, nil
}

// Close implements backend.Adapter.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.token = ""
	a.http.CloseIdleConnections()
	a.SetState(backend.StateUnopened, "Disconnected")
	return nil
}

func pipelineFailures(ctx context.Context, c *factoryClient, p check.OrchestrationParams, now time.Time) map[string]any {
	lookback := p.LookbackHours
	if lookback <= 0 {
		lookback = check.DefaultLookbackHours
	}
	q := runQuery{
		LastUpdatedAfter:  now.Add(-time.Duration(lookback) * time.Hour).Format(queryLayout),
		LastUpdatedBefore: now.Format(queryLayout),
		Filters:           failedOnly,
	}

	runs := make([]any, 0)
	seen := map[string]bool{}
	for {
		page, err := c.queryPipelineRuns(ctx, q)
		if err != nil {
			return errorDocument(err)
		}
		for _, run := range page.Value {
			info := runInfo(run, p.TimezoneDelta)
			activityDetails(ctx, c, run.RunID, q, info)
			runs = append(runs, info)
		}
		if page.ContinuationToken == "" || seen[page.ContinuationToken] {
			break
		}
		seen[page.ContinuationToken] = true
		q.ContinuationToken = page.ContinuationToken
	}

	return map[string]any{
		"totalFailures": len(runs),
		"timeRange":     fmt.Sprintf("Past %d hours", lookback),
		"runDetail":     runs,
	}
}

func runInfo(run pipelineRun, tzDelta int) map[string]any {
	info := map[string]any{
		"runId":        run.RunID,
		"pipelineName": run.PipelineName,
		"status":       "Failed",
	}
	if run.Message != nil {
		info["errorMessage"] = *run.Message
	}
	if run.RunStart != "" {
		info["runStart"] = run.RunStart
		if t, ok := parseTime(run.RunStart); ok {
			info["localStartTime"] = t.Add(time.Duration(tzDelta) * time.Hour).Format(localLayout)
		}
	}
	if run.RunEnd != "" {
		info["runEnd"] = run.RunEnd
		if t, ok := parseTime(run.RunEnd); ok {
			info["localEndTime"] = t.Add(time.Duration(tzDelta) * time.Hour).Format(localLayout)
		}
	}
	if len(run.Parameters) > 0 {
		params := make(map[string]string, len(run.Parameters))
		for k, v := range run.Parameters {
			params[k] = fmt.Sprint(v)
		}
		info["parameters"] = params
	}
	return info
}

func activityDetails(ctx context.Context, c *factoryClient, runID string, window runQuery, info map[string]any) {
	window.ContinuationToken = ""
	page, err := c.queryActivityRuns(ctx, runID, window)
	if err != nil {
		info["activityDetails"] = detailFailed
		return
	}

	var failed []map[string]any
	for _, act := range page.Value {
		entry := map[string]any{
			"activityName": act.ActivityName,
			"activityType": act.ActivityType,
		}
		if act.Error != nil {
			entry["error"] = map[string]any{
				"message":   act.Error.Message,
				"errorCode": act.Error.ErrorCode,
			}
		}
		failed = append(failed, entry)
	}
	if len(failed) > 0 {
		info["failedActivities"] = failed
	}
}

func shirStatus(ctx context.Context, c *factoryClient, p check.OrchestrationParams, now, local time.Time) map[string]any {
	names := p.ShirList
	if len(names) == 0 {
		list, err := c.integrationRuntimes(ctx)
		if err != nil {
			return errorDocument(err)
		}
		for _, ir := range list.Value {
			if ir.Properties.Type == "SelfHosted" {
				names = append(names, ir.Name)
			}
		}
	}
	if len(names) == 0 {
		return map[string]any{"message": "No Self-Hosted Integration Runtimes found"}
	}

	details := make([]any, 0, len(names))
	for _, name := range names {
		details = append(details, runtimeDetail(ctx, c, name))
	}
	return map[string]any{
		"integrationRuntimes": details,
		"count":               len(details),
		"currentTime":         now.Format(time.RFC3339Nano),
		"localTime":           local.Format(localLayout),
	}
}

var nodeFields = []string{
	"lastConnectTime", "lastStartTime", "expiryTime", "machineName",
	"availableMemoryInMB", "cpuUtilization", "concurrentJobsLimit",
	"concurrentJobsRunning", "maxConcurrentJobs",
}

func runtimeDetail(ctx context.Context, c *factoryClient, name string) map[string]any {
	detail := map[string]any{"name": name}

	st, err := c.runtimeStatus(ctx, name)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			detail["error"] = "Failed to get SHIR details: " + httpErr.Status
		} else {
			detail["error"] = "Failed to get SHIR details: " + err.Error()
		}
		return detail
	}

	props := st.Properties
	detail["state"] = orDefault(props.State, "Unknown")
	detail["description"] = props.Description
	tp := props.TypeProperties
	for key, value := range map[string]string{
		"autoUpdate":        tp.AutoUpdate,
		"updateDelayOffset": tp.UpdateDelayOffset,
		"autoUpdateETA":     tp.AutoUpdateETA,
		"latestVersion":     tp.LatestVersion,
	} {
		if value != "" {
			detail[key] = value
		}
	}

	if tp.Nodes != nil {
		nodes := make([]map[string]any, 0, len(tp.Nodes))
		for _, n := range tp.Nodes {
			node := map[string]any{
				"nodeName": stringOr(n["nodeName"], "Unknown"),
				"status":   stringOr(n["status"], "Unknown"),
				"version":  stringOr(n["version"], "Unknown"),
			}
			for _, f := range nodeFields {
				if v, ok := n[f]; ok && v != nil {
					node[f] = v
				}
			}
			nodes = append(nodes, node)
		}
		detail["nodes"] = nodes
		detail["nodeCount"] = len(nodes)
	}
	return detail
}

func errorDocument(err error) map[string]any {
	f := &backend.Failure{Class: backend.ClassExecution, Message: err.Error()}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		f.Details = httpErr.Body
	}
	return backend.ErrorDocument(f)
}

func parseTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}
