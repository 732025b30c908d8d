package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/datasentry/backend"
	"github.com/jonwraymond/datasentry/check"
	"github.com/jonwraymond/datasentry/secret"
)

func TestDispatcher_SharesPooledAdapters(t *testing.T) {
	b := &stubBackend{exec: returning([]any{})}
	d := NewDispatcher(nil, WithRouter(b.router()))
	defer d.Close()
	ctx := context.Background()

	a1 := check.WarehouseParams{Account: "acct1", Query: "Q"}
	a1Upper := check.WarehouseParams{Account: "ACCT1", Query: "Q2"}
	a2 := check.WarehouseParams{Account: "acct2", Query: "Q"}

	for _, p := range []check.Params{a1, a1Upper} {
		if _, err := d.Dispatch(ctx, p); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}
	if b.builtCount() != 1 {
		t.Errorf("adapters for one account = %d, want 1", b.builtCount())
	}

	out, err := d.Dispatch(ctx, a2)
	if err != nil {
		t.Fatal(err)
	}
	if b.builtCount() != 2 {
		t.Errorf("adapters for two accounts = %d, want 2", b.builtCount())
	}
	if out.Key != "warehouse:acct2" {
		t.Errorf("Key = %q, want warehouse:acct2", out.Key)
	}
	if out.ConnectionStatus != "Connected" {
		t.Errorf("ConnectionStatus = %q, want Connected", out.ConnectionStatus)
	}
	if d.Pool().Len() != 2 {
		t.Errorf("pool size = %d, want 2", d.Pool().Len())
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	for i, a := range b.built {
		if a.closed.Load() != 1 {
			t.Errorf("adapter %d closed %d times, want 1", i, a.closed.Load())
		}
	}
}

func TestDispatcher_RelationalKeyedByServer(t *testing.T) {
	b := &stubBackend{exec: returning([]any{})}
	d := NewDispatcher(nil, WithRouter(b.router()))
	defer d.Close()
	ctx := context.Background()

	_, _ = d.Dispatch(ctx, check.RelationalParams{Server: "db01", Database: "sales", Query: "Q"})
	_, _ = d.Dispatch(ctx, check.RelationalParams{Server: "db01", Database: "hr", Query: "Q"})

	if b.builtCount() != 1 {
		t.Errorf("adapters for one server = %d, want 1", b.builtCount())
	}

	_, _ = d.Dispatch(ctx, check.RelationalParams{Driver: "postgres", Server: "db01", Query: "Q"})
	_, _ = d.Dispatch(ctx, check.RelationalParams{Driver: "postgres", Server: "db01", Port: 5433, Query: "Q"})
	_, _ = d.Dispatch(ctx, check.RelationalParams{Driver: "mysql", Server: "db01", Query: "Q"})
	_, _ = d.Dispatch(ctx, check.RelationalParams{Driver: "mysql", Server: "db01", Port: 3306, Query: "Q"})

	if b.builtCount() != 4 {
		t.Errorf("adapters = %d, want 4 (one per engine and port)", b.builtCount())
	}
	if d.Pool().Len() != 4 {
		t.Errorf("pool size = %d, want 4", d.Pool().Len())
	}
}

// hungAdapter ignores cancellation and holds its lock until release is
// closed. Close takes the same lock.
type hungAdapter struct {
	backend.Conn
	mu      sync.Mutex
	release chan struct{}
	closed  chan struct{}
}

func newHungAdapter() *hungAdapter {
	return &hungAdapter{release: make(chan struct{}), closed: make(chan struct{})}
}

func (a *hungAdapter) Execute(context.Context, check.Params) backend.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	<-a.release
	return backend.Success([]any{})
}

func (a *hungAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	close(a.closed)
	return nil
}

func TestDispatcher_TimeoutDoesNotWaitForHungAdapter(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		params check.Params
	}{
		{name: "pooled", key: "warehouse:a1", params: check.WarehouseParams{Account: "a1", Query: "Q"}},
		{name: "unpooled", params: check.IssueParams{Server: "https://jira", JQL: "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newHungAdapter()
			route := func(check.Params) (Route, error) {
				return Route{Key: tc.key, Factory: func() (backend.Adapter, error) { return a, nil }}, nil
			}
			d := NewDispatcher(nil, WithRouter(route), WithCheckTimeout(20*time.Millisecond))
			defer d.Close()

			start := time.Now()
			out, err := d.Dispatch(context.Background(), tc.params)
			elapsed := time.Since(start)
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if elapsed > 500*time.Millisecond {
				t.Errorf("Dispatch() took %v with a 20ms timeout", elapsed)
			}
			if out.Result.Failure == nil || out.Result.Failure.Class != backend.ClassConnection {
				t.Errorf("Failure = %+v, want connection failure", out.Result.Failure)
			}
			if d.Pool().Len() != 0 {
				t.Errorf("pool size = %d, want 0 after timeout", d.Pool().Len())
			}

			close(a.release)
			select {
			case <-a.closed:
			case <-time.After(time.Second):
				t.Error("timed out adapter never closed")
			}
		})
	}
}

func TestDispatcher_UnpooledAdaptersClosedAfterRun(t *testing.T) {
	b := &stubBackend{exec: returning(map[string]any{"total": 0})}
	d := NewDispatcher(nil, WithRouter(b.router()))
	defer d.Close()

	p := check.IssueParams{Server: "https://jira.example.com", JQL: "project = X"}
	for i := 0; i < 2; i++ {
		out, err := d.Dispatch(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		if out.Key != "" {
			t.Errorf("Key = %q, want empty", out.Key)
		}
	}

	if b.builtCount() != 2 {
		t.Errorf("adapters built = %d, want 2", b.builtCount())
	}
	for i, a := range b.built {
		if a.closed.Load() != 1 {
			t.Errorf("adapter %d closed %d times, want 1", i, a.closed.Load())
		}
	}
	if d.Pool().Len() != 0 {
		t.Errorf("pool size = %d, want 0", d.Pool().Len())
	}
}

func TestDispatcher_ResolvesSecretsOnCopy(t *testing.T) {
	t.Setenv("DATASENTRY_TEST_PASSWORD", "s3cret")

	var got check.RelationalParams
	b := &stubBackend{exec: func(_ context.Context, p check.Params) backend.Result {
		got = p.(check.RelationalParams)
		return backend.Success([]any{})
	}}
	d := NewDispatcher(nil, WithRouter(b.router()), WithSecrets(secret.NewDefaultResolver()))
	defer d.Close()

	params := check.RelationalParams{
		Server:   "db01",
		User:     "svc",
		Password: "${DATASENTRY_TEST_PASSWORD}",
		Query:    "SELECT 1",
	}
	if _, err := d.Dispatch(context.Background(), params); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got.Password != "s3cret" {
		t.Errorf("adapter password = %q, want resolved value", got.Password)
	}
	if params.Password != "${DATASENTRY_TEST_PASSWORD}" {
		t.Errorf("caller params mutated: %q", params.Password)
	}
}

func TestDispatcher_MissingSecretIsFault(t *testing.T) {
	b := &stubBackend{exec: returning([]any{})}
	d := NewDispatcher(nil, WithRouter(b.router()), WithSecrets(secret.NewDefaultResolver()))
	defer d.Close()

	_, err := d.Dispatch(context.Background(), check.IssueParams{
		Server: "https://jira.example.com",
		Token:  "${DATASENTRY_TEST_UNSET_TOKEN}",
		JQL:    "project = X",
	})
	if !errors.Is(err, secret.ErrMissingEnv) {
		t.Errorf("Dispatch() error = %v, want ErrMissingEnv", err)
	}
	if b.builtCount() != 0 {
		t.Error("adapter built despite unresolved credentials")
	}
}

func TestDispatcher_NilFactory(t *testing.T) {
	d := NewDispatcher(nil, WithRouter(func(check.Params) (Route, error) {
		return Route{Key: "k"}, nil
	}))
	defer d.Close()

	if _, err := d.Dispatch(context.Background(), check.IssueParams{}); !errors.Is(err, backend.ErrNilFactory) {
		t.Errorf("Dispatch() error = %v, want ErrNilFactory", err)
	}
}

type unroutableParams struct{}

func (unroutableParams) Kind() check.Kind { return check.KindUnknown }
func (unroutableParams) Validate() error  { return nil }

func TestNewRouter(t *testing.T) {
	route := NewRouter(nil)

	tests := []struct {
		name    string
		params  check.Params
		wantKey string
	}{
		{name: "warehouse", params: check.WarehouseParams{Account: "Acme", Query: "Q"}, wantKey: "warehouse:acme"},
		{name: "relational", params: check.RelationalParams{Server: "DB01", Query: "Q"}, wantKey: "relational:sqlserver:db01:1433"},
		{name: "orchestration", params: check.OrchestrationParams{SubscriptionID: "s", ResourceGroup: "r", Factory: "f"}},
		{name: "issue tracker", params: check.IssueParams{Server: "https://jira", JQL: "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := route(tc.params)
			if err != nil {
				t.Fatalf("route() error = %v", err)
			}
			if r.Key != tc.wantKey {
				t.Errorf("Key = %q, want %q", r.Key, tc.wantKey)
			}
			if r.Factory == nil {
				t.Error("Factory = nil")
			}
		})
	}

	if _, err := route(unroutableParams{}); !errors.Is(err, ErrNoRoute) {
		t.Errorf("route(unknown) error = %v, want ErrNoRoute", err)
	}
}
