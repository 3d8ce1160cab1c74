package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is a process-local CacheStore for tests and for running
// the proxy without a database file.
type MemoryRepository struct {
	mu          sync.RWMutex
	generations map[string]*memoryGeneration
	now         func() time.Time
}

type memoryGeneration struct {
	createdAt time.Time
	entries   map[string]CachedResponse
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		generations: make(map[string]*memoryGeneration),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) OpenGeneration(_ context.Context, name string) error {
	if err := checkGeneration(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openLocked(name)
	return nil
}

func (r *MemoryRepository) openLocked(name string) *memoryGeneration {
	g, ok := r.generations[name]
	if !ok {
		g = &memoryGeneration{createdAt: r.now(), entries: make(map[string]CachedResponse)}
		r.generations[name] = g
	}
	return g
}

func (r *MemoryRepository) Generations(_ context.Context) ([]Generation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Generation, 0, len(r.generations))
	for name, g := range r.generations {
		out = append(out, Generation{Name: name, CreatedAt: g.createdAt, Entries: len(g.entries)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) DeleteGeneration(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.generations[name]; !ok {
		return ErrNotFound
	}
	delete(r.generations, name)
	return nil
}

func (r *MemoryRepository) Match(_ context.Context, generation, url string) (CachedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generations[generation]
	if !ok {
		return CachedResponse{}, ErrNotFound
	}
	entry, ok := g.entries[url]
	if !ok {
		return CachedResponse{}, ErrNotFound
	}
	return entry.Clone(), nil
}

func (r *MemoryRepository) Put(ctx context.Context, in CachedResponse) error {
	return r.PutAll(ctx, in.Generation, []CachedResponse{in})
}

func (r *MemoryRepository) PutAll(_ context.Context, generation string, in []CachedResponse) error {
	if err := checkGeneration(generation); err != nil {
		return err
	}
	for _, entry := range in {
		if strings.TrimSpace(entry.URL) == "" {
			return errors.New("storage: cache entry url is required")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.openLocked(generation)
	now := r.now()
	for _, entry := range in {
		stored := entry.Clone()
		stored.Generation = generation
		if stored.StoredAt.IsZero() {
			stored.StoredAt = now
		}
		g.entries[stored.URL] = stored
	}
	return nil
}

func (r *MemoryRepository) ListEntries(_ context.Context, generation string, filter EntryListFilter) ([]CachedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generations[generation]
	if !ok {
		return []CachedResponse{}, nil
	}
	out := make([]CachedResponse, 0, len(g.entries))
	for _, entry := range g.entries {
		out = append(out, entry.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []CachedResponse{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}
