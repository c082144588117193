package filters

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownFilter is returned by Apply for names that are not registered.
var ErrUnknownFilter = errors.New("unknown filter")

// Func transforms a value. Funcs are pure: they never modify value or args.
type Func func(value any, args Args) (any, error)

// Category groups filters for documentation; it has no runtime meaning.
type Category string

const (
	CategoryString  Category = "string"
	CategoryArray   Category = "array"
	CategoryNumber  Category = "number"
	CategoryDate    Category = "date"
	CategoryObject  Category = "object"
	CategoryUtility Category = "utility"
)

// Filter is a named transform.
type Filter struct {
	Name        string
	Category    Category
	Description string
	Fn          Func
}

// Registry maps filter names to filters.
// It is safe for concurrent use; registration is expected to happen before rendering.
type Registry struct {
	filters map[string]Filter
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]Filter),
	}
}

// NewDefaultRegistry creates a registry holding every built-in filter
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, group := range [][]Filter{
		stringFilters(),
		arrayFilters(),
		numberFilters(),
		dateFilters(),
		objectFilters(),
		utilityFilters(),
	} {
		for _, f := range group {
			r.MustRegister(f)
		}
	}
	return r
}

// Register adds or replaces a filter
func (r *Registry) Register(f Filter) error {
	if f.Name == "" {
		return fmt.Errorf("filter name is required")
	}
	if f.Fn == nil {
		return fmt.Errorf("filter %q has no function", f.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[f.Name] = f
	return nil
}

// MustRegister is Register for static filter tables; it panics on invalid filters
func (r *Registry) MustRegister(f Filter) {
	if err := r.Register(f); err != nil {
		panic(err)
	}
}

// Lookup finds a filter by name
func (r *Registry) Lookup(name string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Apply runs the named filter on value
func (r *Registry) Apply(name string, value any, args Args) (any, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	return f.Fn(value, args)
}

// List returns all filters sorted by name
func (r *Registry) List() []Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Filter, 0, len(r.filters))
	for _, f := range r.filters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Categories returns filter names grouped by category
func (r *Registry) Categories() map[Category][]string {
	out := make(map[Category][]string)
	for _, f := range r.List() {
		out[f.Category] = append(out[f.Category], f.Name)
	}
	return out
}

// Clone returns an independent copy that can be extended without affecting r
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry()
	for name, f := range r.filters {
		c.filters[name] = f
	}
	return c
}
