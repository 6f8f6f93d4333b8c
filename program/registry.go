package program

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRegistryCapacity bounds the registry when no capacity is
// configured. A worker that crosses it silently drops its least
// recently used program.
const DefaultRegistryCapacity = 1024

// Registry stores records by program ID with LRU eviction. A second
// Put under the same ID replaces the stored record.
type Registry struct {
	cache    *lru.Cache[string, *Record]
	onInsert func(*Record)
	onRemove func(*Record)
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithInsertHook registers fn to run whenever a new ID enters the
// registry. Overwrites of an existing ID do not trigger it.
func WithInsertHook(fn func(*Record)) RegistryOption {
	return func(r *Registry) { r.onInsert = fn }
}

// WithRemoveHook registers fn to run whenever a record leaves the
// registry, whether by eviction, Delete or Clear.
func WithRemoveHook(fn func(*Record)) RegistryOption {
	return func(r *Registry) { r.onRemove = fn }
}

// NewRegistry builds a registry holding at most capacity records.
func NewRegistry(capacity int, opts ...RegistryOption) (*Registry, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("registry capacity must be positive, got %d", capacity)
	}
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	cache, err := lru.NewWithEvict(capacity, func(_ string, rec *Record) {
		if r.onRemove != nil {
			r.onRemove(rec)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build registry cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Put stores rec under its ID, replacing any existing record with that
// ID. Storing into a full registry evicts the least recently used
// record first.
func (r *Registry) Put(rec *Record) {
	replacing := r.cache.Contains(rec.ID)
	r.cache.Add(rec.ID, rec)
	if !replacing && r.onInsert != nil {
		r.onInsert(rec)
	}
}

// Get returns the record stored under id and refreshes its recency.
func (r *Registry) Get(id string) (*Record, bool) {
	return r.cache.Get(id)
}

// Delete removes the record stored under id, reporting whether one was
// present.
func (r *Registry) Delete(id string) bool {
	return r.cache.Remove(id)
}

// Clear removes every record and returns how many were dropped.
func (r *Registry) Clear() int {
	n := r.cache.Len()
	r.cache.Purge()
	return n
}

// Len reports the number of stored records.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// List returns the stored records from least to most recently used.
func (r *Registry) List() []*Record {
	keys := r.cache.Keys()
	records := make([]*Record, 0, len(keys))
	for _, id := range keys {
		if rec, ok := r.cache.Peek(id); ok {
			records = append(records, rec)
		}
	}
	return records
}
