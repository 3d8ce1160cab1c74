package offline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/pomo/internal/storage"
)

// origin is an httptest server that records how often each path was hit.
type origin struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newOrigin(t *testing.T, routes map[string]int) *origin {
	t.Helper()
	o := &origin{hits: make(map[string]int)}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.hits[r.URL.Path]++
		o.mu.Unlock()
		status, ok := routes[r.URL.Path]
		if !ok {
			status = http.StatusNotFound
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "body:"+r.URL.Path)
	}))
	t.Cleanup(o.Close)
	return o
}

func (o *origin) count(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

func (o *origin) total() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, v := range o.hits {
		n += v
	}
	return n
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func shellManifest() Manifest {
	return Manifest{Prefix: "/", Paths: []string{"", "index.html", "script.js"}}
}

func newTestProxy(t *testing.T, store storage.CacheStore, originURL string, opts ...Option) *Proxy {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithManifest(shellManifest())}, opts...)
	p, err := NewProxy(store, originURL, opts...)
	require.NoError(t, err)
	return p
}

func get(t *testing.T, p *Proxy, raw string) *Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, raw, nil)
	require.NoError(t, err)
	resp, err := p.Fetch(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestManifestHitMakesNoNetworkCall(t *testing.T) {
	o := newOrigin(t, map[string]int{"/": 200, "/index.html": 200, "/script.js": 200})
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL)

	report, err := p.Install(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Cached, 3)
	require.Empty(t, report.Failed)
	before := o.total()

	resp := get(t, p, o.URL+"/script.js")
	assert.Equal(t, SourceHit, resp.Source)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "body:/script.js", string(resp.Body))

	root := get(t, p, o.URL+"/")
	assert.Equal(t, SourceHit, root.Source)
	assert.Equal(t, before, o.total())
}

func TestSameOriginMissIsStoredForNextRequest(t *testing.T) {
	o := newOrigin(t, map[string]int{"/extra.css": 200})
	store := storage.NewMemoryRepository()
	p := newTestProxy(t, store, o.URL)

	first := get(t, p, o.URL+"/extra.css")
	assert.Equal(t, SourceMiss, first.Source)
	assert.Equal(t, TypeBasic, first.Type)

	second := get(t, p, o.URL+"/extra.css")
	assert.Equal(t, SourceHit, second.Source)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, o.count("/extra.css"))
}

func TestNonOKResponsesPassThroughUncached(t *testing.T) {
	o := newOrigin(t, map[string]int{"/boom": 500})
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL)

	for i := 0; i < 2; i++ {
		resp := get(t, p, o.URL+"/missing")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, SourceMiss, resp.Source)
	}
	assert.Equal(t, 2, o.count("/missing"))

	resp := get(t, p, o.URL+"/boom")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCrossOriginResponsesAreNotStored(t *testing.T) {
	o := newOrigin(t, nil)
	cdn := newOrigin(t, map[string]int{"/font.css": 200})
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL)

	for i := 0; i < 2; i++ {
		resp := get(t, p, cdn.URL+"/font.css")
		assert.Equal(t, TypeCORS, resp.Type)
		assert.Equal(t, SourceMiss, resp.Source)
	}
	assert.Equal(t, 2, cdn.count("/font.css"))
}

func TestOnlyGetIsCached(t *testing.T) {
	o := newOrigin(t, map[string]int{"/submit": 200})
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL)

	for i := 0; i < 2; i++ {
		req, err := http.NewRequest(http.MethodPost, o.URL+"/submit", nil)
		require.NoError(t, err)
		resp, err := p.Fetch(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, SourceMiss, resp.Source)
	}
	assert.Equal(t, 2, o.count("/submit"))
}

func TestActivateLeavesOnlyCurrentGeneration(t *testing.T) {
	o := newOrigin(t, map[string]int{"/": 200, "/index.html": 200, "/script.js": 200})
	store := storage.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, store.OpenGeneration(ctx, "pomo-timer-v0"))
	require.NoError(t, store.OpenGeneration(ctx, "scratch"))

	p := newTestProxy(t, store, o.URL)
	_, err := p.Install(ctx)
	require.NoError(t, err)

	deleted, err := p.Activate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pomo-timer-v0", "scratch"}, deleted)

	gens, err := store.Generations(ctx)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, DefaultGeneration, gens[0].Name)
	assert.Equal(t, 3, gens[0].Entries)

	again, err := p.Activate(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestInstallHardenedKeepsPartialCache(t *testing.T) {
	o := newOrigin(t, map[string]int{"/": 200, "/index.html": 200, "/script.js": 500})
	store := storage.NewMemoryRepository()
	p := newTestProxy(t, store, o.URL)

	report, err := p.Install(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Cached, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, o.URL+"/script.js", report.Failed[0].URL)

	entries, err := store.ListEntries(context.Background(), DefaultGeneration, storage.EntryListFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestInstallStrictStoresNothingOnFailure(t *testing.T) {
	o := newOrigin(t, map[string]int{"/": 200, "/index.html": 200})
	store := storage.NewMemoryRepository()
	p := newTestProxy(t, store, o.URL, WithStrictInstall(true))

	_, err := p.Install(context.Background())
	require.ErrorIs(t, err, ErrInstallFailed)

	entries, err := store.ListEntries(context.Background(), DefaultGeneration, storage.EntryListFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchFailureUsesFallbackPage(t *testing.T) {
	o := newOrigin(t, map[string]int{"/": 200, "/index.html": 200, "/script.js": 200})
	store := storage.NewMemoryRepository()
	p := newTestProxy(t, store, o.URL, WithFallback("/index.html"))
	_, err := p.Install(context.Background())
	require.NoError(t, err)
	o.Close()

	resp := get(t, p, o.URL+"/uncached.js")
	assert.Equal(t, SourceFallback, resp.Source)
	assert.Equal(t, "body:/index.html", string(resp.Body))
}

func TestFetchFailureWithoutFallback(t *testing.T) {
	o := newOrigin(t, nil)
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL)
	o.Close()

	req, err := http.NewRequest(http.MethodGet, o.URL+"/script.js", nil)
	require.NoError(t, err)
	_, err = p.Fetch(context.Background(), req)
	assert.ErrorIs(t, err, ErrFetchFailed)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/script.js", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestServeHTTPReportsCacheSource(t *testing.T) {
	o := newOrigin(t, map[string]int{"/app.css": 200})
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get(HeaderCache))
	assert.Equal(t, "body:/app.css", rec.Body.String())

	rec = httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.css", nil))
	assert.Equal(t, "hit", rec.Header().Get(HeaderCache))
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "body:/app.css", rec.Body.String())
	assert.Equal(t, 1, o.count("/app.css"))
}

func TestExternalWithoutPathMatchesCanonicalForm(t *testing.T) {
	o := newOrigin(t, map[string]int{"/": 200, "/index.html": 200, "/script.js": 200})
	cdn := newOrigin(t, map[string]int{"/": 200})
	manifest := shellManifest()
	manifest.External = []string{cdn.URL + "?family=Inter"}
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL, WithManifest(manifest))

	report, err := p.Install(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Failed)
	require.Contains(t, report.Cached, cdn.URL+"/?family=Inter")
	before := cdn.count("/")

	for _, raw := range []string{cdn.URL + "/?family=Inter", cdn.URL + "?family=Inter"} {
		resp := get(t, p, raw)
		assert.Equal(t, SourceHit, resp.Source, raw)
		assert.Equal(t, "body:/", string(resp.Body))
	}
	assert.Equal(t, before, cdn.count("/"))
}

func TestServeHTTPRefusesConnect(t *testing.T) {
	o := newOrigin(t, nil)
	p := newTestProxy(t, storage.NewMemoryRepository(), o.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodConnect, "cdn.example:443", nil)
	req.Host = "cdn.example:443"
	p.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, 0, o.total())
}

func TestManifestURLsHonorPrefix(t *testing.T) {
	base, err := url.Parse("http://localhost:8000")
	require.NoError(t, err)

	urls, err := DefaultManifest("pomo").URLs(base)
	require.NoError(t, err)
	require.Len(t, urls, 11)
	assert.Equal(t, "http://localhost:8000/pomo/", urls[0])
	assert.Equal(t, "http://localhost:8000/pomo/index.html", urls[1])
	assert.Equal(t, "http://localhost:8000/pomo/icons/icon.svg", urls[7])
	assert.Equal(t, "https://cdn.tailwindcss.com/?plugins=forms,container-queries", urls[8])

	root, err := DefaultManifest("").URLs(base)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/", root[0])

	_, err = Manifest{}.URLs(&url.URL{Path: "/x"})
	assert.Error(t, err)
}

func TestNewProxyRejectsRelativeOrigin(t *testing.T) {
	_, err := NewProxy(storage.NewMemoryRepository(), "/relative")
	assert.Error(t, err)
	_, err = NewProxy(nil, "http://localhost")
	assert.Error(t, err)
}
