package backend

import (
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Pool owns long-lived adapters keyed by target identity.
//
// Contract:
//   - Concurrency: safe for concurrent use; concurrent Resolve calls for the
//     same key construct at most one adapter.
//   - Ownership: the pool closes every adapter it holds on Discard and
//     DisposeAll. Callers must not Close a pooled adapter themselves.
type Pool struct {
	mu       sync.Mutex
	adapters map[string]Adapter
	group    singleflight.Group
	disposed bool
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{adapters: make(map[string]Adapter)}
}

// Resolve returns the adapter stored under key, constructing it with
// factory when absent.
func (p *Pool) Resolve(key string, factory Factory) (Adapter, error) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil, ErrPoolDisposed
	}
	if a, ok := p.adapters[key]; ok {
		p.mu.Unlock()
		return a, nil
	}
	p.mu.Unlock()

	if factory == nil {
		return nil, ErrNilFactory
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		p.mu.Lock()
		if a, ok := p.adapters[key]; ok {
			p.mu.Unlock()
			return a, nil
		}
		p.mu.Unlock()

		a, err := factory()
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.disposed {
			_ = a.Close()
			return nil, ErrPoolDisposed
		}
		p.adapters[key] = a
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Adapter), nil
}

// Get returns the adapter stored under key without constructing one.
func (p *Pool) Get(key string) (Adapter, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.adapters[key]
	return a, ok
}

// Discard closes and removes the adapter stored under key so the next
// Resolve constructs a fresh one. Unknown keys are ignored.
func (p *Pool) Discard(key string) error {
	p.mu.Lock()
	a, ok := p.adapters[key]
	delete(p.adapters, key)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return a.Close()
}

// Evict removes the adapter stored under key and closes it in the
// background. Unlike Discard it does not wait for a call that still holds
// the adapter. Unknown keys are ignored.
func (p *Pool) Evict(key string) {
	p.mu.Lock()
	a, ok := p.adapters[key]
	delete(p.adapters, key)
	p.mu.Unlock()
	if ok {
		go func() { _ = a.Close() }()
	}
}

// DisposeAll closes every adapter and rejects further Resolve calls.
func (p *Pool) DisposeAll() error {
	p.mu.Lock()
	held := p.adapters
	p.adapters = make(map[string]Adapter)
	p.disposed = true
	p.mu.Unlock()

	var errs []error
	for _, a := range held {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of held adapters.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.adapters)
}

// Keys returns the held keys in sorted order.
func (p *Pool) Keys() []string {
	p.mu.Lock()
	keys := make([]string, 0, len(p.adapters))
	for k := range p.adapters {
		keys = append(keys, k)
	}
	p.mu.Unlock()
	sort.Strings(keys)
	return keys
}
