package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/datasentry/backend"
	"github.com/jonwraymond/datasentry/backend/relational"
	"github.com/jonwraymond/datasentry/backend/warehouse"
	"github.com/jonwraymond/datasentry/check"
)

type execFunc func(ctx context.Context, params check.Params) backend.Result

type stubAdapter struct {
	backend.Conn
	exec   execFunc
	closed atomic.Int32
}

func (a *stubAdapter) Execute(ctx context.Context, params check.Params) backend.Result {
	a.SetState(backend.StateOpen, "Connected")
	return a.exec(ctx, params)
}

func (a *stubAdapter) Close() error {
	a.closed.Add(1)
	return nil
}

// stubBackend builds stub adapters keyed the way the production router
// keys them, and remembers every adapter it built.
type stubBackend struct {
	exec execFunc

	mu    sync.Mutex
	built []*stubAdapter
}

func (b *stubBackend) router() Router {
	return func(params check.Params) (Route, error) {
		var key string
		switch p := params.(type) {
		case check.WarehouseParams:
			key = warehouse.Key(p)
		case check.RelationalParams:
			key = relational.Key(p)
		}
		return Route{Key: key, Factory: func() (backend.Adapter, error) {
			a := &stubAdapter{exec: b.exec}
			b.mu.Lock()
			b.built = append(b.built, a)
			b.mu.Unlock()
			return a, nil
		}}, nil
	}
}

func (b *stubBackend) builtCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.built)
}

func returning(doc any) execFunc {
	return func(context.Context, check.Params) backend.Result {
		return backend.Success(doc)
	}
}

func loadRegistry(t *testing.T, text string) *check.Registry {
	t.Helper()
	reg := check.NewRegistry()
	if _, err := reg.Load(text); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return reg
}

func newTestScheduler(t *testing.T, reg *check.Registry, b *stubBackend, opts ...Option) *Scheduler {
	t.Helper()
	d := NewDispatcher(nil, WithRouter(b.router()))
	s := New(reg, d, append([]Option{WithPause(0)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

const warehouseConfig = `[{"sentry_type":"warehouse","description":"d1","account":"a1","query":"Q"}]`
