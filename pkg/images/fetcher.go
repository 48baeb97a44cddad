// Package images fetches and decodes the pictures a page loads, from
// data URIs, the local filesystem or over HTTP.
package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const userAgent = "particlex/1.0 (compatible; Go)"

// maxBody caps how much of a response is read.
const maxBody = 32 << 20

// Fetcher resolves image URIs and decodes them. Decoded images are
// cached by resolved URI, failures are not. Safe for concurrent use.
type Fetcher struct {
	baseDir string
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]image.Image
}

type Option func(*Fetcher)

// WithBaseDir resolves site-relative paths ("/img/a.png") and relative
// paths against dir.
func WithBaseDir(dir string) Option {
	return func(f *Fetcher) { f.baseDir = dir }
}

// WithBaseURL resolves relative references against base before the
// filesystem is consulted.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) { f.baseURL = base }
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		baseDir: ".",
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
		cache:   make(map[string]image.Image),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve turns uri into the location Fetch will read: data URIs and
// absolute URLs as-is, relative references against the base URL when
// one is set, and everything else as a path under the base directory.
func (f *Fetcher) Resolve(uri string) string {
	switch {
	case IsDataURI(uri), IsNetworkURL(uri):
		return uri
	case f.baseURL != "":
		return ResolveURL(f.baseURL, uri)
	}
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil {
			return u.Path
		}
	}
	if filepath.IsAbs(uri) && f.baseDir == "" {
		return uri
	}
	return filepath.Join(f.baseDir, filepath.FromSlash(strings.TrimPrefix(uri, "/")))
}

// Fetch returns the raw bytes behind uri.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	resolved := f.Resolve(uri)
	switch {
	case IsDataURI(resolved):
		return decodeDataURI(resolved)
	case IsNetworkURL(resolved):
		return f.get(ctx, resolved)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// Image fetches and decodes uri.
func (f *Fetcher) Image(ctx context.Context, uri string) (image.Image, error) {
	key := f.Resolve(uri)
	f.mu.RLock()
	img, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		return img, nil
	}

	data, err := f.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", uri, err)
	}
	f.logger.Debug("image decoded", "uri", uri, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	f.mu.Lock()
	f.cache[key] = img
	f.mu.Unlock()
	return img, nil
}

// Dimensions returns the pixel size of the image at uri.
func (f *Fetcher) Dimensions(ctx context.Context, uri string) (width, height int, err error) {
	img, err := f.Image(ctx, uri)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// IsNetworkURL reports whether s looks like an HTTP or HTTPS URL.
func IsNetworkURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ResolveURL resolves a possibly-relative reference against base. If
// either fails to parse, ref is returned unchanged.
func ResolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding data URI: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URI: %w", err)
	}
	return []byte(s), nil
}
