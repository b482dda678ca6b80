package art

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"folio/internal/catalog"
	"folio/internal/fetch"
)

const IndexPath = "/art/index.json"

// Entry is one sketch in the art catalog.
type Entry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Script string `json:"script"`
}

// FallbackSketches is the catalog used when the art index cannot be loaded.
func FallbackSketches() []Entry {
	return []Entry{
		{ID: "neon-orbits", Title: "Neon Orbits", Script: "/art/sketches/neon-orbits.js"},
		{ID: "matrix-flow", Title: "Matrix Flow", Script: "/art/sketches/matrix-flow.js"},
	}
}

// GalleryOptions sizes new canvases.
type GalleryOptions struct {
	Width  int
	Height int
}

// Gallery renders the art catalog into mounts and keeps the running
// instances of the last render pass.
type Gallery struct {
	catalog  *catalog.Loader[Entry]
	registry *Registry
	env      Environment
	opts     GalleryOptions
	log      logrus.FieldLogger

	mu        sync.Mutex
	mounts    []*Mount
	instances []*Instance
}

// NewGallery creates a gallery whose catalog is read from fetcher.
func NewGallery(fetcher fetch.Fetcher, registry *Registry, env Environment, opts GalleryOptions, log logrus.FieldLogger) *Gallery {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Width <= 0 {
		opts.Width = 320
	}
	if opts.Height <= 0 {
		opts.Height = 240
	}
	log = log.WithField("area", "art")
	return &Gallery{
		catalog:  catalog.New(fetcher, IndexPath, FallbackSketches, log),
		registry: registry,
		env:      env,
		opts:     opts,
		log:      log,
	}
}

// Entries returns the art catalog.
func (g *Gallery) Entries(ctx context.Context) []Entry {
	return g.catalog.Entries(ctx)
}

// RenderAll builds one mount per catalog entry, loads every distinct script
// once, replaces the running instances and starts a sketch on each mount
// that has a registered factory. If any script fails to load the pass is
// aborted before anything is torn down or started.
func (g *Gallery) RenderAll(ctx context.Context) ([]*Mount, error) {
	entries := g.catalog.Entries(ctx)

	mounts := make([]*Mount, 0, len(entries))
	for _, e := range entries {
		mounts = append(mounts, &Mount{
			ID:     e.ID,
			Title:  e.Title,
			Canvas: NewCanvas(g.opts.Width, g.opts.Height),
		})
	}

	if err := g.loadScripts(ctx, entries); err != nil {
		g.log.WithError(err).Error("render pass aborted")
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.logDisposals(g.clearLocked())

	for _, m := range mounts {
		factory, ok := g.registry.Lookup(m.ID)
		if !ok {
			g.log.WithField("sketch", m.ID).Debug("no sketch registered, leaving mount empty")
			continue
		}
		g.instances = append(g.instances, newInstance(m, factory(m)))
	}
	g.mounts = mounts
	return mounts, nil
}

func (g *Gallery) loadScripts(ctx context.Context, entries []Entry) error {
	seen := make(map[string]bool)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, e := range entries {
		if e.Script == "" || seen[e.Script] {
			continue
		}
		seen[e.Script] = true
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			if err := g.env.Load(ctx, src); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(e.Script)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (g *Gallery) clearLocked() []DisposeResult {
	results := make([]DisposeResult, 0, len(g.instances))
	for len(g.instances) > 0 {
		last := g.instances[len(g.instances)-1]
		g.instances = g.instances[:len(g.instances)-1]
		results = append(results, last.Dispose())
	}
	return results
}

func (g *Gallery) logDisposals(results []DisposeResult) {
	for _, r := range results {
		if r.Err != nil {
			g.log.WithField("sketch", r.ID).WithError(r.Err).Warn("failed to dispose sketch")
		}
	}
}

// Close disposes every running instance.
func (g *Gallery) Close() []DisposeResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	results := g.clearLocked()
	g.logDisposals(results)
	return results
}

// Mounts returns the mounts of the last successful pass.
func (g *Gallery) Mounts() []*Mount {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Mount(nil), g.mounts...)
}

// Instances returns the running instances.
func (g *Gallery) Instances() []*Instance {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Instance(nil), g.instances...)
}

// Instance returns the running instance for id.
func (g *Gallery) Instance(id string) (*Instance, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, inst := range g.instances {
		if inst.Mount.ID == id {
			return inst, true
		}
	}
	return nil, false
}

// Snapshot advances the sketch id by frames frames and returns the canvas.
func (g *Gallery) Snapshot(id string, frames int) (image.Image, error) {
	inst, ok := g.Instance(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoInstance, id)
	}
	for i := 0; i < frames; i++ {
		inst.Step()
	}
	return inst.Frame(), nil
}
