// Package issues counts tickets matching a JQL search on a Jira server.
//
// The result document is
//
//	{"total": 3, "issues": [{"Key": "OPS-1", "Summary": "Nightly load ..."}]}
//
// with each summary cut to SummaryLimit characters.
package issues

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/jonwraymond/datasentry/backend"
	"github.com/jonwraymond/datasentry/check"
)

// SummaryLimit is the number of characters kept from an issue summary.
const SummaryLimit = 50

// ErrStatus is returned for a non-2xx search response.
var ErrStatus = errors.New("issues: unexpected response status")

type searchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type searchResponse struct {
	Total  *int `json:"total"`
	Issues []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary *string `json:"summary"`
		} `json:"fields"`
	} `json:"issues"`
}

// Issue is one search hit.
type Issue struct {
	Key     string `json:"Key"`
	Summary string `json:"Summary"`
}

// Adapter runs JQL searches. It holds no session; State reflects the
// outcome of the last request.
type Adapter struct {
	backend.Conn

	http *http.Client

	mu     sync.Mutex
	closed bool
}

// New creates an adapter. A nil client uses a default client with the
// check's timeout applied per request.
func New(client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	a := &Adapter{http: client}
	a.SetState(backend.StateUnopened, "Not connected")
	return a
}

// Factory returns a constructor using client.
func Factory(client *http.Client) backend.Factory {
	return func() (backend.Adapter, error) {
		return New(client), nil
	}
}

// Execute implements backend.Adapter.
func (a *Adapter) Execute(ctx context.Context, params check.Params) backend.Result {
	p, ok := params.(check.IssueParams)
	if !ok {
		return backend.Fail(backend.ClassParameters, fmt.Errorf("%w: %T", backend.ErrWrongParams, params))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return backend.Fail(backend.ClassConnection, backend.ErrClosed)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	resp, err := a.search(ctx, p)
	if err != nil {
		a.SetState(backend.StateFailed, fmt.Sprintf("Query failed: %v", err))
		var fail *backend.Failure
		if errors.As(err, &fail) {
			return backend.Result{Failure: fail}
		}
		return backend.Fail(backend.ClassConnection, err)
	}

	doc := map[string]any{"issues": summaries(resp)}
	if resp.Total != nil {
		doc["total"] = *resp.Total
		a.SetState(backend.StateOpen, fmt.Sprintf("Query executed successfully. Total issues: %d", *resp.Total))
	} else {
		a.SetState(backend.StateOpen, "Query executed successfully")
	}
	return backend.Success(doc)
}

func (a *Adapter) search(ctx context.Context, p check.IssueParams) (*searchResponse, error) {
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = check.DefaultIssueMaxResults
	}
	body, err := json.Marshal(searchRequest{
		JQL:        p.JQL,
		MaxResults: maxResults,
		Fields:     []string{"summary"},
	})
	if err != nil {
		return nil, &backend.Failure{Class: backend.ClassParameters, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Server+"/rest/api/2/search", bytes.NewReader(body))
	if err != nil {
		return nil, &backend.Failure{Class: backend.ClassParameters, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.Username != "" || p.Token != "" {
		req.SetBasicAuth(p.Username, p.Token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		class := backend.ClassExecution
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			class = backend.ClassAuth
		}
		return nil, &backend.Failure{
			Class:   class,
			Message: fmt.Sprintf("%v: %s", ErrStatus, resp.Status),
			Details: string(detail),
		}
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &backend.Failure{Class: backend.ClassExecution, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return &out, nil
}

// summaries reduces a search response to keys and truncated summaries.
func summaries(resp *searchResponse) []Issue {
	out := make([]Issue, 0, len(resp.Issues))
	for _, is := range resp.Issues {
		summary := "N/A"
		if is.Fields.Summary != nil {
			summary = Truncate(*is.Fields.Summary, SummaryLimit)
		}
		out = append(out, Issue{Key: is.Key, Summary: summary})
	}
	return out
}

// Truncate keeps the first n characters of s, appending "..." when
// anything was cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Close implements backend.Adapter.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.http.CloseIdleConnections()
	a.SetState(backend.StateUnopened, "Disconnected")
	return nil
}
