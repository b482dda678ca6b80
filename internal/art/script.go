package art

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"folio/internal/fetch"
)

// Environment loads script resources. Loading a sketch script registers its
// factories.
type Environment interface {
	Load(ctx context.Context, src string) error
}

// Installer is the body of a built-in script.
type Installer func(r *Registry)

// ScriptHost is the built-in Environment: every known script path maps to an
// Installer that runs at most once. Concurrent loads of one path share the
// same attempt. Failed loads are not remembered.
type ScriptHost struct {
	registry *Registry
	scripts  map[string]Installer
	verifier fetch.Fetcher
	group    singleflight.Group

	mu     sync.Mutex
	loaded map[string]bool
}

// NewScriptHost creates a host installing into registry.
func NewScriptHost(registry *Registry, scripts map[string]Installer) *ScriptHost {
	return &ScriptHost{
		registry: registry,
		scripts:  scripts,
		loaded:   make(map[string]bool),
	}
}

// VerifyWith makes every load first fetch the script from f, so a script
// missing from the content origin fails like it would in a browser.
func (h *ScriptHost) VerifyWith(f fetch.Fetcher) *ScriptHost {
	h.verifier = f
	return h
}

func (h *ScriptHost) Load(ctx context.Context, src string) error {
	if h.Loaded(src) {
		return nil
	}
	ch := h.group.DoChan(src, func() (interface{}, error) {
		// A load that finished between the check above and this call
		// must not install twice.
		if h.Loaded(src) {
			return nil, nil
		}
		if err := h.install(ctx, src); err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.loaded[src] = true
		h.mu.Unlock()
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrScriptLoad, src, ctx.Err())
	}
}

func (h *ScriptHost) install(ctx context.Context, src string) error {
	if h.verifier != nil {
		if _, err := h.verifier.Fetch(ctx, src); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrScriptLoad, src, err)
		}
	}
	installer, ok := h.scripts[src]
	if !ok {
		return fmt.Errorf("%w: %s: unknown script", ErrScriptLoad, src)
	}
	installer(h.registry)
	return nil
}

// Loaded reports whether src has been installed.
func (h *ScriptHost) Loaded(src string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded[src]
}
