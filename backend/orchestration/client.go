package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// APIVersion is the Data Factory management API version.
const APIVersion = "2018-06-01"

// DefaultEndpoint is the public-cloud management endpoint.
const DefaultEndpoint = "https://management.azure.com"

const maxErrorBody = 64 << 10

// factoryClient issues management API calls scoped to one factory.
type factoryClient struct {
	http  *http.Client
	base  string
	token string
}

func factoryURL(endpoint, subscription, resourceGroup, factory string) string {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return fmt.Sprintf("%s/subscriptions/%s/resourceGroups/%s/providers/Microsoft.DataFactory/factories/%s",
		trimSlash(endpoint),
		url.PathEscape(subscription),
		url.PathEscape(resourceGroup),
		url.PathEscape(factory))
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func (c *factoryClient) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("orchestration: encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path+"?api-version="+APIVersion, rdr)
	if err != nil {
		return fmt.Errorf("orchestration: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("orchestration: decode response: %w", err)
	}
	return nil
}

type filter struct {
	Operand  string   `json:"operand"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

var failedOnly = []filter{{Operand: "Status", Operator: "Equals", Values: []string{"Failed"}}}

type runQuery struct {
	LastUpdatedAfter  string   `json:"lastUpdatedAfter"`
	LastUpdatedBefore string   `json:"lastUpdatedBefore"`
	Filters           []filter `json:"filters"`
	ContinuationToken string   `json:"continuationToken,omitempty"`
}

type pipelineRun struct {
	RunID        string         `json:"runId"`
	PipelineName string         `json:"pipelineName"`
	Message      *string        `json:"message"`
	RunStart     string         `json:"runStart"`
	RunEnd       string         `json:"runEnd"`
	Parameters   map[string]any `json:"parameters"`
}

type runPage struct {
	Value             []pipelineRun `json:"value"`
	ContinuationToken string        `json:"continuationToken"`
}

type activityRun struct {
	ActivityName string `json:"activityName"`
	ActivityType string `json:"activityType"`
	Error        *struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	} `json:"error"`
}

type activityPage struct {
	Value []activityRun `json:"value"`
}

type integrationRuntime struct {
	Name       string `json:"name"`
	Properties struct {
		Type string `json:"type"`
	} `json:"properties"`
}

type runtimeList struct {
	Value []integrationRuntime `json:"value"`
}

type runtimeStatus struct {
	Name       string `json:"name"`
	Properties struct {
		State          string `json:"state"`
		Description    string `json:"description"`
		TypeProperties struct {
			AutoUpdate        string           `json:"autoUpdate"`
			UpdateDelayOffset string           `json:"updateDelayOffset"`
			AutoUpdateETA     string           `json:"autoUpdateETA"`
			LatestVersion     string           `json:"latestVersion"`
			Nodes             []map[string]any `json:"nodes"`
		} `json:"typeProperties"`
	} `json:"properties"`
}

func (c *factoryClient) queryPipelineRuns(ctx context.Context, q runQuery) (runPage, error) {
	var page runPage
	err := c.do(ctx, http.MethodPost, "/queryPipelineRuns", q, &page)
	return page, err
}

func (c *factoryClient) queryActivityRuns(ctx context.Context, runID string, q runQuery) (activityPage, error) {
	var page activityPage
	err := c.do(ctx, http.MethodPost, "/pipelineruns/"+url.PathEscape(runID)+"/queryActivityruns", q, &page)
	return page, err
}

func (c *factoryClient) integrationRuntimes(ctx context.Context) (runtimeList, error) {
	var list runtimeList
	err := c.do(ctx, http.MethodGet, "/integrationRuntimes", nil, &list)
	return list, err
}

func (c *factoryClient) runtimeStatus(ctx context.Context, name string) (runtimeStatus, error) {
	var st runtimeStatus
	err := c.do(ctx, http.MethodPost, "/integrationRuntimes/"+url.PathEscape(name)+"/getStatus", nil, &st)
	return st, err
}
