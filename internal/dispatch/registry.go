package dispatch

import (
	"context"
	"io"
	"sort"
	"sync"
)

// TaskFunc is an in-process task entry routine. params is the canonical
// name→value map; human-readable output goes to stdout.
type TaskFunc func(ctx context.Context, params map[string]string, stdout io.Writer) error

// Registry maps task names to in-process routines. A name present here
// pairs with a schema descriptor of kind InProcess registered alongside.
type Registry struct {
	mu       sync.RWMutex
	routines map[string]TaskFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{routines: make(map[string]TaskFunc)}
}

// Register installs a routine under name, replacing any previous one.
func (r *Registry) Register(name string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routines[name] = fn
}

// Lookup returns the routine registered under name.
func (r *Registry) Lookup(name string) (TaskFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.routines[name]
	return fn, ok
}

// Names returns the registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.routines))
	for name := range r.routines {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
