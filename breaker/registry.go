package breaker

import "sync"

// Registry holds one long-lived Breaker per guarded dependency name,
// constructing them lazily with shared default options. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	optFns   []func(o *Options)
}

// NewRegistry creates a registry whose breakers are built with the provided
// default options.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		optFns:   optFns,
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, r.optFns...)
	r.breakers[name] = b
	return b
}

// Names returns the names of all breakers created so far.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	return names
}

// Stats returns a snapshot per breaker, keyed by dependency name.
func (r *Registry) Stats() map[string]Stats {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	stats := make(map[string]Stats, len(breakers))
	for _, b := range breakers {
		stats[b.Name()] = b.Stats()
	}
	return stats
}
