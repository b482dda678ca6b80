// Package fetch retrieves raw site resources (manifests, markdown posts,
// sketch scripts) from a content origin.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound means the origin has no resource at the path.
	ErrNotFound = errors.New("resource not found")
	// ErrUnavailable means the origin answered with a non-success status.
	ErrUnavailable = errors.New("resource unavailable")
)

// Fetcher returns the raw bytes stored at a site-absolute path such as
// "/blog/index.json".
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Is lets callers match on ErrNotFound / ErrUnavailable.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound || e.Status == http.StatusGone
	case ErrUnavailable:
		return e.Status != http.StatusNotFound && e.Status != http.StatusGone
	}
	return false
}

// HTTPFetcher reads resources from a remote origin.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher rooted at baseURL. A nil client gets a
// default one with the given timeout.
func NewHTTPFetcher(baseURL string, client *http.Client, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPFetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	url := f.baseURL + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return body, nil
}

// DirFetcher reads resources from a file system, typically os.DirFS of the
// content directory.
type DirFetcher struct {
	fsys fs.FS
}

func NewDirFetcher(fsys fs.FS) *DirFetcher {
	return &DirFetcher{fsys: fsys}
}

func (f *DirFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path, "/")
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	data, err := fs.ReadFile(f.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Counting wraps a Fetcher and records how often each path was requested.
type Counting struct {
	next Fetcher

	mu     sync.Mutex
	counts map[string]int
}

func NewCounting(next Fetcher) *Counting {
	return &Counting{next: next, counts: make(map[string]int)}
}

func (c *Counting) Fetch(ctx context.Context, path string) ([]byte, error) {
	c.mu.Lock()
	c.counts[path]++
	c.mu.Unlock()
	return c.next.Fetch(ctx, path)
}

// Count returns the number of fetches of path so far.
func (c *Counting) Count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[path]
}

// Total returns the number of fetches across all paths.
func (c *Counting) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

// Counts returns a copy of the per-path fetch counts.
func (c *Counting) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
