package adapters

import (
	"fmt"
	"sort"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// Registry holds the known shelter adapters keyed by shelter ID. It is
// populated once at construction and read-only afterwards, so lookups need
// no locking.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds the production registry with every supported shelter,
// sharing one set of scraping limits across all of them.
func NewRegistry(doer Doer, opts Options) *Registry {
	return NewRegistryWith(
		NewNaPaluchu(doer, opts),
		NewPromyk(doer, opts),
		NewPsiakowo(doer, opts),
	)
}

// NewRegistryWith builds a registry from an explicit adapter set.
func NewRegistryWith(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.ID()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter for a shelter ID.
func (r *Registry) Get(shelterID string) (Adapter, error) {
	a, ok := r.adapters[shelterID]
	if !ok {
		return nil, fmt.Errorf("adapter %q: %w", shelterID, domain.ErrAdapterUnknown)
	}
	return a, nil
}

// All returns every registered adapter ordered by shelter ID.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// IDs returns the registered shelter IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
