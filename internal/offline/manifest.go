package offline

import (
	"fmt"
	"net/url"
	"strings"
)

const DefaultGeneration = "pomo-timer-v1"

// Manifest lists the URLs fetched eagerly at install time. Paths are
// relative to Prefix on the origin; External entries are absolute.
type Manifest struct {
	Prefix   string   `yaml:"prefix"`
	Paths    []string `yaml:"paths"`
	External []string `yaml:"external"`
}

// DefaultManifest is the page shell, its script and audio cue, the web
// manifest, the icons, and the stylesheet/font CDNs the page links to.
func DefaultManifest(prefix string) Manifest {
	return Manifest{
		Prefix: prefix,
		Paths: []string{
			"",
			"index.html",
			"script.js",
			"audio.mp3",
			"manifest.json",
			"icons/icon-192x192.png",
			"icons/icon-512x512.png",
			"icons/icon.svg",
		},
		External: []string{
			"https://cdn.tailwindcss.com?plugins=forms,container-queries",
			"https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap",
			"https://fonts.googleapis.com/icon?family=Material+Icons",
		},
	}
}

// URLs resolves every manifest entry to an absolute URL, origin paths first.
func (m Manifest) URLs(origin *url.URL) ([]string, error) {
	if origin == nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("offline: manifest origin must be absolute")
	}
	prefix := normalizePrefix(m.Prefix)
	out := make([]string, 0, len(m.Paths)+len(m.External))
	for _, p := range m.Paths {
		ref, err := url.Parse(prefix + strings.TrimPrefix(p, "/"))
		if err != nil {
			return nil, fmt.Errorf("offline: manifest path %q: %w", p, err)
		}
		out = append(out, cacheKey(origin.ResolveReference(ref)))
	}
	for _, raw := range m.External {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("offline: manifest external url %q is not absolute", raw)
		}
		out = append(out, cacheKey(u))
	}
	return out, nil
}

// cacheKey is the stored form of u. An empty path is written as "/" so
// "https://host?q" and "https://host/?q" share one entry.
func cacheKey(u *url.URL) string {
	if u.Path != "" || u.RawPath != "" || u.Opaque != "" {
		return u.String()
	}
	c := *u
	c.Path = "/"
	return c.String()
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
