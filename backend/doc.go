// Package backend defines the adapter contract every check backend
// satisfies and the connection pool that shares adapters between runs.
//
// An Adapter owns one connection or session to an external system. It opens
// lazily on the first Execute, reuses the connection while it reports itself
// open, and drops it after a failed open so the next call starts fresh.
// Execute never panics or returns a Go error: transport, authentication and
// query failures come back as a Result carrying a Failure.
//
//	pool := backend.NewPool()
//	defer pool.DisposeAll()
//
//	a, err := pool.Resolve("warehouse:acme-eu", func() (backend.Adapter, error) {
//	    return warehouse.New(params), nil
//	})
//	res := a.Execute(ctx, params)
//	if res.Failure != nil {
//	    log.Printf("%s: %s", res.Failure.Class, res.Failure.Message)
//	}
//
// Adapter variants live in the warehouse, relational, orchestration and
// issues subpackages.
package backend
