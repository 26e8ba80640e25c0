package scenario

import "sync"

// Registry holds scenarios in insertion order.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*Scenario
}

// NewRegistry returns a registry containing list in order.
func NewRegistry(list ...*Scenario) *Registry {
	r := &Registry{byName: make(map[string]*Scenario)}
	for _, s := range list {
		r.Put(s)
	}
	return r
}

// Put adds s, or replaces the scenario with the same name while keeping its position.
func (r *Registry) Put(s *Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[s.Name]; !ok {
		r.order = append(r.order, s.Name)
	}
	r.byName[s.Name] = s
}

// Get returns the scenario named name.
func (r *Registry) Get(name string) (*Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// Names returns scenario names in registry order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List returns scenarios in registry order.
func (r *Registry) List() []*Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Scenario, len(r.order))
	for i, n := range r.order {
		out[i] = r.byName[n]
	}
	return out
}

// Len returns the number of scenarios.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// First returns the first scenario, if any.
func (r *Registry) First() (*Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, false
	}
	return r.byName[r.order[0]], true
}

// Next returns the scenario after name, wrapping to the first. An unknown
// name yields the first scenario.
func (r *Registry) Next(name string) (*Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, false
	}
	for i, n := range r.order {
		if n == name {
			return r.byName[r.order[(i+1)%len(r.order)]], true
		}
	}
	return r.byName[r.order[0]], true
}
