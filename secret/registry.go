package secret

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory creates a Provider from configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry manages provider factories.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ProviderFactory)}
}

// Register adds a provider factory.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return fmt.Errorf("%w: provider registration needs a name and factory", ErrInvalidRef)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("secret: provider %q already registered", name)
	}
	r.providers[name] = factory
	return nil
}

// Create instantiates a provider by name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)

	r.mu.RLock()
	factory, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	return factory(cfg)
}

// List returns registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver instantiates every registered provider, passing cfgs[name] to
// its factory, and returns a resolver over them.
func (r *Registry) Resolver(strict bool, cfgs map[string]map[string]any) (*Resolver, error) {
	res := NewResolver(strict)
	for _, name := range r.List() {
		p, err := r.Create(name, cfgs[name])
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("secret: create provider %q: %w", name, err)
		}
		res.Register(p)
	}
	return res, nil
}

// NewBuiltinRegistry returns a registry holding the env and file providers.
// The file provider accepts an optional "dir" setting.
func NewBuiltinRegistry() *Registry {
	reg := NewRegistry()
	_ = reg.Register("env", func(map[string]any) (Provider, error) {
		return EnvProvider{}, nil
	})
	_ = reg.Register("file", func(cfg map[string]any) (Provider, error) {
		dir, _ := cfg["dir"].(string)
		return FileProvider{Dir: dir}, nil
	})
	return reg
}

// DefaultRegistry is the process-wide provider registry.
var DefaultRegistry = NewBuiltinRegistry()
