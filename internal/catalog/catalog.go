// Package catalog loads a site manifest once and falls back to a fixed list
// when the manifest cannot be read.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"folio/internal/fetch"
)

// Source tells where the adopted catalog came from.
type Source int

const (
	SourceNone Source = iota
	SourceManifest
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceManifest:
		return "manifest"
	case SourceFallback:
		return "fallback"
	}
	return "none"
}

// Loader holds the catalog of one content area.
type Loader[T any] struct {
	fetcher  fetch.Fetcher
	path     string
	fallback func() []T
	log      logrus.FieldLogger

	mu      sync.Mutex
	done    bool
	entries []T
	source  Source
}

// New creates a loader for the manifest at path.
func New[T any](fetcher fetch.Fetcher, path string, fallback func() []T, log logrus.FieldLogger) *Loader[T] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader[T]{
		fetcher:  fetcher,
		path:     path,
		fallback: fallback,
		log:      log.WithField("manifest", path),
	}
}

// Init fetches the manifest on the first call. Concurrent callers wait for
// that call; every later call returns immediately. A failed fetch or decode
// adopts the fallback list and still counts as initialized.
func (l *Loader[T]) Init(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}

	entries, err := l.load(ctx)
	if err != nil {
		l.log.WithError(err).Warn("catalog unavailable, using fallback list")
		l.entries = l.fallback()
		l.source = SourceFallback
	} else {
		l.entries = entries
		l.source = SourceManifest
	}
	l.done = true
}

func (l *Loader[T]) load(ctx context.Context) ([]T, error) {
	body, err := l.fetcher.Fetch(ctx, l.path)
	if err != nil {
		return nil, err
	}
	var entries []T
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", l.path, err)
	}
	return entries, nil
}

// Entries initializes the loader if needed and returns a copy of the catalog.
func (l *Loader[T]) Entries(ctx context.Context) []T {
	l.Init(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.entries))
	copy(out, l.entries)
	return out
}

// Source reports which list was adopted, or SourceNone before Init.
func (l *Loader[T]) Source() Source {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.source
}
