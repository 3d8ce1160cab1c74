// Package offline serves page assets cache-first from a named cache
// generation, falling back to the origin and storing successful same-origin
// responses as they pass through.
package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/pomo/internal/storage"
)

var (
	ErrFetchFailed   = errors.New("offline: fetch failed")
	ErrInstallFailed = errors.New("offline: install failed")
)

const (
	HeaderCache     = "X-Pomo-Cache"
	HeaderRequestID = "X-Request-Id"

	defaultTimeout = 10 * time.Second
)

type Source string

const (
	SourceHit      Source = "hit"
	SourceMiss     Source = "miss"
	SourceFallback Source = "fallback"
)

// ResponseType mirrors the fetch response type: basic for same-origin,
// cors for everything else.
type ResponseType string

const (
	TypeBasic ResponseType = "basic"
	TypeCORS  ResponseType = "cors"
)

type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Type       ResponseType
	Source     Source
}

type InstallFailure struct {
	URL string
	Err error
}

type InstallReport struct {
	Generation string
	Cached     []string
	Failed     []InstallFailure
}

// Proxy is safe for concurrent use; store writes are serialized.
type Proxy struct {
	store      storage.CacheStore
	generation string
	origin     *url.URL
	manifest   Manifest
	client     *http.Client
	fallback   string
	strict     bool
	log        logrus.FieldLogger

	writeMu sync.Mutex
}

type Option func(*Proxy)

func WithGeneration(name string) Option {
	return func(p *Proxy) {
		if name != "" {
			p.generation = name
		}
	}
}

func WithManifest(m Manifest) Option {
	return func(p *Proxy) { p.manifest = m }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Proxy) {
		if c != nil {
			p.client = c
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Proxy) {
		if log != nil {
			p.log = log
		}
	}
}

// WithStrictInstall makes Install abort on the first failed manifest entry
// without storing anything.
func WithStrictInstall(strict bool) Option {
	return func(p *Proxy) { p.strict = strict }
}

// WithFallback names an origin path served from the cache when a network
// fetch fails.
func WithFallback(path string) Option {
	return func(p *Proxy) { p.fallback = path }
}

func NewProxy(store storage.CacheStore, origin string, opts ...Option) (*Proxy, error) {
	if store == nil {
		return nil, errors.New("offline: cache store is required")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("offline: parse origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("offline: origin %q must be an absolute url", origin)
	}
	p := &Proxy{
		store:      store,
		generation: DefaultGeneration,
		origin:     u,
		manifest:   DefaultManifest("/"),
		client:     &http.Client{Timeout: defaultTimeout},
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Proxy) Generation() string { return p.generation }

// Install opens the current generation and populates it with the manifest.
func (p *Proxy) Install(ctx context.Context) (InstallReport, error) {
	report := InstallReport{Generation: p.generation}
	urls, err := p.manifest.URLs(p.origin)
	if err != nil {
		return report, err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.store.OpenGeneration(ctx, p.generation); err != nil {
		return report, fmt.Errorf("offline: open generation: %w", err)
	}

	batch := make([]storage.CachedResponse, 0, len(urls))
	for _, target := range urls {
		resp, err := p.network(ctx, http.MethodGet, target, nil, nil)
		if err == nil && resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		if err != nil {
			if p.strict {
				return InstallReport{Generation: p.generation}, fmt.Errorf("%w: %s: %v", ErrInstallFailed, target, err)
			}
			p.log.WithFields(logrus.Fields{"url": target, "error": err}).Warn("manifest entry not cached")
			report.Failed = append(report.Failed, InstallFailure{URL: target, Err: err})
			continue
		}
		batch = append(batch, p.toCached(target, resp))
		report.Cached = append(report.Cached, target)
	}

	if err := p.store.PutAll(ctx, p.generation, batch); err != nil {
		return InstallReport{Generation: p.generation}, fmt.Errorf("offline: store manifest: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"generation": p.generation,
		"cached":     len(report.Cached),
		"failed":     len(report.Failed),
	}).Info("cache installed")
	return report, nil
}

// Activate deletes every generation other than the current one and returns
// the deleted names.
func (p *Proxy) Activate(ctx context.Context) ([]string, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	gens, err := p.store.Generations(ctx)
	if err != nil {
		return nil, fmt.Errorf("offline: list generations: %w", err)
	}
	deleted := make([]string, 0, len(gens))
	for _, g := range gens {
		if g.Name == p.generation {
			continue
		}
		if err := p.store.DeleteGeneration(ctx, g.Name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return deleted, fmt.Errorf("offline: delete generation %s: %w", g.Name, err)
		}
		p.log.WithField("generation", g.Name).Info("deleted old cache")
		deleted = append(deleted, g.Name)
	}
	sort.Strings(deleted)
	return deleted, nil
}

// Fetch answers req from the current generation when possible and from the
// network otherwise. req.URL must be absolute.
func (p *Proxy) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	return p.fetch(ctx, req, p.log)
}

func (p *Proxy) fetch(ctx context.Context, req *http.Request, log logrus.FieldLogger) (*Response, error) {
	if req == nil || req.URL == nil || !req.URL.IsAbs() {
		return nil, fmt.Errorf("%w: request url must be absolute", ErrFetchFailed)
	}
	key := cacheKey(req.URL)
	cacheable := req.Method == "" || req.Method == http.MethodGet

	if cacheable {
		hit, err := p.store.Match(ctx, p.generation, key)
		switch {
		case err == nil:
			return fromCached(hit, p.typeOf(key), SourceHit), nil
		case !errors.Is(err, storage.ErrNotFound):
			log.WithError(err).Warn("cache lookup failed")
		}
	}

	resp, err := p.network(ctx, req.Method, key, req.Header, req.Body)
	if err != nil {
		log.WithError(err).Warn("network fetch failed")
		if fb, ok := p.fallbackResponse(ctx, log); ok {
			return fb, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, key, err)
	}

	if cacheable && resp.StatusCode == http.StatusOK && resp.Type == TypeBasic {
		p.writeMu.Lock()
		err := p.store.Put(ctx, p.toCached(key, resp))
		p.writeMu.Unlock()
		if err != nil {
			log.WithError(err).Warn("cache store failed")
		}
	}
	return resp, nil
}

func (p *Proxy) fallbackResponse(ctx context.Context, log logrus.FieldLogger) (*Response, bool) {
	if p.fallback == "" {
		return nil, false
	}
	target := p.resolve(&url.URL{Path: p.fallback})
	hit, err := p.store.Match(ctx, p.generation, target)
	if err != nil {
		log.WithError(err).WithField("fallback", target).Warn("fallback page unavailable")
		return nil, false
	}
	return fromCached(hit, TypeBasic, SourceFallback), true
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	if r.Method == http.MethodConnect {
		p.log.WithFields(logrus.Fields{"request_id": reqID, "host": r.Host}).Debug("tunnel refused")
		w.Header().Set(HeaderRequestID, reqID)
		w.Header().Set("Allow", "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS")
		http.Error(w, "offline: CONNECT not supported", http.StatusMethodNotAllowed)
		return
	}
	target := r.URL.String()
	if !r.URL.IsAbs() {
		target = p.resolve(r.URL)
	}
	log := p.log.WithFields(logrus.Fields{
		"request_id": reqID,
		"method":     r.Method,
		"url":        target,
	})

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		log.WithError(err).Warn("bad proxy request")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	out.Header = r.Header.Clone()

	resp, err := p.fetch(r.Context(), out, log)
	if err != nil {
		w.Header().Set(HeaderRequestID, reqID)
		http.Error(w, "offline: upstream unavailable", http.StatusBadGateway)
		return
	}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "source": resp.Source}).Debug("served")

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.Header().Set(HeaderCache, string(resp.Source))
	w.Header().Set(HeaderRequestID, reqID)
	w.WriteHeader(resp.StatusCode)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

func (p *Proxy) resolve(ref *url.URL) string {
	return cacheKey(p.origin.ResolveReference(&url.URL{Path: ref.Path, RawQuery: ref.RawQuery}))
}

func (p *Proxy) network(ctx context.Context, method, target string, header http.Header, body io.Reader) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if header != nil {
		req.Header = header.Clone()
	}
	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	final := target
	if res.Request != nil && res.Request.URL != nil {
		final = res.Request.URL.String()
	}
	header = res.Header.Clone()
	header.Del("Content-Length")
	return &Response{
		URL:        target,
		StatusCode: res.StatusCode,
		Header:     header,
		Body:       data,
		Type:       p.typeOf(final),
		Source:     SourceMiss,
	}, nil
}

func (p *Proxy) typeOf(raw string) ResponseType {
	u, err := url.Parse(raw)
	if err != nil {
		return TypeCORS
	}
	if u.Scheme == p.origin.Scheme && u.Host == p.origin.Host {
		return TypeBasic
	}
	return TypeCORS
}

func (p *Proxy) toCached(key string, resp *Response) storage.CachedResponse {
	return storage.CachedResponse{
		Generation: p.generation,
		URL:        key,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       append([]byte(nil), resp.Body...),
	}
}

func fromCached(c storage.CachedResponse, typ ResponseType, src Source) *Response {
	return &Response{
		URL:        c.URL,
		StatusCode: c.StatusCode,
		Header:     c.Header.Clone(),
		Body:       c.Body,
		Type:       typ,
		Source:     src,
	}
}
