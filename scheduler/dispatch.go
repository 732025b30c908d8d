package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/datasentry/backend"
	"github.com/jonwraymond/datasentry/backend/issues"
	"github.com/jonwraymond/datasentry/backend/orchestration"
	"github.com/jonwraymond/datasentry/backend/relational"
	"github.com/jonwraymond/datasentry/backend/warehouse"
	"github.com/jonwraymond/datasentry/check"
	"github.com/jonwraymond/datasentry/resilience"
	"github.com/jonwraymond/datasentry/secret"
)

// Route names the adapter serving one check.
type Route struct {
	// Key is the pool key. Empty means the adapter is built for this run
	// only and closed afterwards.
	Key string

	// Factory constructs the adapter.
	Factory backend.Factory
}

// Router maps resolved check parameters to a Route.
type Router func(params check.Params) (Route, error)

// NewRouter returns the production router. client is shared by the HTTP
// adapters; nil uses each adapter's default client.
func NewRouter(client *http.Client, opts ...orchestration.Option) Router {
	if client != nil {
		opts = append([]orchestration.Option{orchestration.WithHTTPClient(client)}, opts...)
	}
	return func(params check.Params) (Route, error) {
		switch p := params.(type) {
		case check.WarehouseParams:
			return Route{Key: warehouse.Key(p), Factory: warehouse.Factory(p)}, nil
		case check.RelationalParams:
			return Route{Key: relational.Key(p), Factory: relational.Factory(p)}, nil
		case check.OrchestrationParams:
			return Route{Factory: orchestration.Factory(opts...)}, nil
		case check.IssueParams:
			return Route{Factory: issues.Factory(client)}, nil
		default:
			return Route{}, fmt.Errorf("%w: %T", ErrNoRoute, params)
		}
	}
}

// Outcome is the result of one dispatch.
type Outcome struct {
	// Key is the pool key used, empty for unpooled adapters.
	Key string

	// Result is the adapter result.
	Result backend.Result

	// ConnectionStatus is the adapter's status text after the call.
	ConnectionStatus string
}

// Dispatcher executes checks against their adapters.
//
// Contract:
//   - Concurrency: safe for concurrent use, though the Scheduler only ever
//     calls it from the run slot.
//   - Ownership: the Dispatcher owns its pool; Close disposes every adapter.
//   - Errors: Dispatch returns an error only when no adapter result exists
//     (routing, credential or construction faults). Backend failures are
//     reported in Outcome.Result.
type Dispatcher struct {
	pool    *backend.Pool
	route   Router
	secrets *secret.Resolver
	timeout time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRouter replaces the production router.
func WithRouter(r Router) DispatcherOption {
	return func(d *Dispatcher) {
		if r != nil {
			d.route = r
		}
	}
}

// WithSecrets sets the resolver applied to credential fields.
func WithSecrets(r *secret.Resolver) DispatcherOption {
	return func(d *Dispatcher) {
		d.secrets = r
	}
}

// WithCheckTimeout bounds every adapter call. Zero disables the bound.
func WithCheckTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = t
	}
}

// NewDispatcher creates a Dispatcher. A nil pool gets a fresh one.
func NewDispatcher(pool *backend.Pool, opts ...DispatcherOption) *Dispatcher {
	if pool == nil {
		pool = backend.NewPool()
	}
	d := &Dispatcher{
		pool:  pool,
		route: NewRouter(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pool returns the adapter pool.
func (d *Dispatcher) Pool() *backend.Pool {
	return d.pool
}

// Dispatch runs params against its adapter.
func (d *Dispatcher) Dispatch(ctx context.Context, params check.Params) (Outcome, error) {
	params, err := d.resolveSecrets(ctx, params)
	if err != nil {
		return Outcome{}, err
	}

	route, err := d.route(params)
	if err != nil {
		return Outcome{}, err
	}
	if route.Factory == nil {
		return Outcome{}, backend.ErrNilFactory
	}

	var adapter backend.Adapter
	if route.Key != "" {
		adapter, err = d.pool.Resolve(route.Key, route.Factory)
	} else {
		adapter, err = route.Factory()
	}
	if err != nil {
		return Outcome{Key: route.Key}, fmt.Errorf("create adapter: %w", err)
	}
	// abandoned is set when the call outlives its deadline. The adapter
	// may still be inside Execute, so it is closed without waiting.
	abandoned := false
	if route.Key == "" {
		defer func() {
			if abandoned {
				go func() { _ = adapter.Close() }()
				return
			}
			_ = adapter.Close()
		}()
	}

	results := make(chan backend.Result, 1)
	err = resilience.Within(ctx, d.timeout, func(ctx context.Context) error {
		defer func() {
			if r := recover(); r != nil {
				results <- backend.Fail(backend.ClassExecution, fmt.Errorf("panic: %v", r))
			}
		}()
		results <- adapter.Execute(ctx, params)
		return nil
	})
	var res backend.Result
	if err != nil {
		abandoned = true
		res = backend.Fail(backend.ClassConnection, err)
	} else {
		res = <-results
	}

	if route.Key != "" {
		switch {
		case abandoned:
			d.pool.Evict(route.Key)
		case res.Failure != nil && res.Failure.Class == backend.ClassConnection:
			_ = d.pool.Discard(route.Key)
		}
	}

	return Outcome{
		Key:              route.Key,
		Result:           res,
		ConnectionStatus: adapter.ConnectionStatus(),
	}, nil
}

// Close disposes every pooled adapter.
func (d *Dispatcher) Close() error {
	return d.pool.DisposeAll()
}

// resolveSecrets returns a copy of params with credential references
// replaced by their values. The loaded record keeps the references.
func (d *Dispatcher) resolveSecrets(ctx context.Context, params check.Params) (check.Params, error) {
	if d.secrets == nil {
		return params, nil
	}

	var err error
	switch p := params.(type) {
	case check.WarehouseParams:
		err = d.secrets.ResolveFields(ctx, map[string]*string{
			"account":  &p.Account,
			"user":     &p.User,
			"password": &p.Password,
			"token":    &p.Token,
		})
		params = p
	case check.RelationalParams:
		err = d.secrets.ResolveFields(ctx, map[string]*string{
			"server":   &p.Server,
			"user":     &p.User,
			"password": &p.Password,
		})
		params = p
	case check.OrchestrationParams:
		err = d.secrets.ResolveFields(ctx, map[string]*string{
			"subscription": &p.SubscriptionID,
			"token":        &p.Token,
		})
		params = p
	case check.IssueParams:
		err = d.secrets.ResolveFields(ctx, map[string]*string{
			"server":   &p.Server,
			"username": &p.Username,
			"token":    &p.Token,
		})
		params = p
	}
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}
	return params, nil
}
