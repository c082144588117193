// Package builtins provides the variables every template can reference without the
// caller supplying them, such as {{today}}, {{time}} and {{uuid}}.
//
// Caller variables always shadow built-ins of the same name.
package builtins

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aescanero/dago-node-template/internal/eval/dates"
)

// Clock returns the current time
type Clock func() time.Time

// Func computes a built-in value at lookup time
type Func func(now time.Time) any

// Registry maps built-in variable names to generators
type Registry struct {
	clock Clock
	vars  map[string]Func
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry using clock (time.Now when nil)
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		clock: clock,
		vars:  make(map[string]Func),
	}
}

// NewDefaultRegistry creates a registry with the standard date, time and id variables
func NewDefaultRegistry(clock Clock) *Registry {
	r := NewRegistry(clock)

	r.Register("date", func(now time.Time) any { return dates.New(now) })
	r.Register("today", func(now time.Time) any { return dates.New(now) })
	r.Register("now", func(now time.Time) any { return dates.NewDateTime(now) })
	r.Register("tomorrow", func(now time.Time) any { return dates.New(now.AddDate(0, 0, 1)) })
	r.Register("yesterday", func(now time.Time) any { return dates.New(now.AddDate(0, 0, -1)) })
	r.Register("time", func(now time.Time) any { return dates.Format(now, "HH:mm") })
	r.Register("datetime", func(now time.Time) any { return dates.Format(now, "yyyy-MM-dd HH:mm") })
	r.Register("timestamp", func(now time.Time) any { return strconv.FormatInt(now.Unix(), 10) })
	r.Register("year", func(now time.Time) any { return now.Year() })
	r.Register("month", func(now time.Time) any { return now.Month().String() })
	r.Register("weekday", func(now time.Time) any { return now.Weekday().String() })
	r.Register("uuid", func(time.Time) any { return uuid.New().String() })

	return r
}

// Register adds or replaces a built-in variable
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars[name] = fn
}

// Lookup evaluates the named built-in
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	fn, ok := r.vars[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn(r.clock()), true
}

// Names lists registered variables in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
