package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("storage: not found")
	ErrInvalidGeneration = errors.New("storage: invalid generation name")
)

// CacheStore holds named cache generations. Put and PutAll create the
// generation when it does not exist yet.
type CacheStore interface {
	OpenGeneration(ctx context.Context, name string) error
	Generations(ctx context.Context) ([]Generation, error)
	DeleteGeneration(ctx context.Context, name string) error

	Match(ctx context.Context, generation, url string) (CachedResponse, error)
	Put(ctx context.Context, in CachedResponse) error
	PutAll(ctx context.Context, generation string, in []CachedResponse) error
	ListEntries(ctx context.Context, generation string, filter EntryListFilter) ([]CachedResponse, error)

	Close() error
}
