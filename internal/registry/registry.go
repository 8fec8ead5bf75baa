// Package registry is the in-memory store of swap records. Records are
// created at initiation and retained for audit and listing; they are
// never deleted, so size is bounded only by process lifetime.
package registry

import (
	"fmt"
	"sync"

	"github.com/ayo6706/hufflepay/internal/domain"
)

// Registry is a keyed swap store safe for concurrent use. It hands out
// clones so callers never share record memory with the registry.
type Registry struct {
	mu    sync.RWMutex
	swaps map[string]*domain.Swap
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{swaps: make(map[string]*domain.Swap)}
}

// Put stores or replaces the record under its identifier.
func (r *Registry) Put(swap *domain.Swap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swaps[swap.ID] = swap.Clone()
}

// Get returns a copy of the record, or ErrSwapNotFound.
func (r *Registry) Get(id string) (*domain.Swap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	swap, ok := r.swaps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSwapNotFound, id)
	}
	return swap.Clone(), nil
}

// List returns copies of all records. Iteration order is not
// meaningful; callers sort by timestamp when order matters.
func (r *Registry) List() []*domain.Swap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Swap, 0, len(r.swaps))
	for _, swap := range r.swaps {
		out = append(out, swap.Clone())
	}
	return out
}

// Len returns the number of stored records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.swaps)
}
