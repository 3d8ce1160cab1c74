package storage

import (
	"net/http"
	"time"
)

// CachedResponse is one stored network response inside a cache generation,
// keyed by the absolute request URL.
type CachedResponse struct {
	Generation string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// Clone returns a deep copy so callers never share header maps or body
// bytes with the store.
func (c CachedResponse) Clone() CachedResponse {
	out := c
	out.Header = c.Header.Clone()
	if c.Body != nil {
		out.Body = append([]byte(nil), c.Body...)
	}
	return out
}

type Generation struct {
	Name      string
	CreatedAt time.Time
	Entries   int
}

type EntryListFilter struct {
	Limit  int
	Offset int
}
