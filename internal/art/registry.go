// Package art runs the generative sketches of the gallery.
package art

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
)

// ErrScriptLoad marks a sketch script that could not be loaded.
var ErrScriptLoad = errors.New("failed to load art script")

// ErrNoInstance is returned for sketches that are not running.
var ErrNoInstance = errors.New("no running sketch")

// Sketch is a visual behaviour bound to one mount.
type Sketch interface {
	// Setup runs once before the first frame.
	Setup(c *Canvas)
	// Draw renders one frame.
	Draw(c *Canvas)
	// Resize runs after the canvas changed size.
	Resize(c *Canvas)
	// Dispose releases the sketch. It is called once.
	Dispose() error
}

// Factory creates the sketch for a mount.
type Factory func(m *Mount) Sketch

// Mount is a gallery card: a title and an empty canvas tagged with the
// catalog entry id.
type Mount struct {
	ID     string
	Title  string
	Canvas *Canvas
}

// Registry maps sketch ids to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds factory under id. A later registration replaces an earlier
// one.
func (r *Registry) Register(id string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
}

func (r *Registry) Lookup(id string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[id]
	return f, ok
}

// IDs lists the registered ids in order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DisposeResult records the teardown of one instance.
type DisposeResult struct {
	ID  string
	Err error
}

// Instance is a running sketch.
type Instance struct {
	Mount *Mount

	mu     sync.Mutex
	sketch Sketch
	frames int
}

func newInstance(m *Mount, s Sketch) *Instance {
	s.Setup(m.Canvas)
	return &Instance{Mount: m, sketch: s}
}

// Step draws one frame.
func (i *Instance) Step() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sketch == nil {
		return
	}
	i.sketch.Draw(i.Mount.Canvas)
	i.frames++
}

// Frames returns how many frames have been drawn.
func (i *Instance) Frames() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.frames
}

// Frame returns a copy of the current canvas.
func (i *Instance) Frame() *image.RGBA {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.Mount.Canvas.Snapshot()
}

func (i *Instance) Resize(w, h int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sketch == nil {
		return
	}
	i.Mount.Canvas.Resize(w, h)
	i.sketch.Resize(i.Mount.Canvas)
}

// Dispose tears the sketch down. A panicking Dispose is reported as an
// error. Later calls are no-ops.
func (i *Instance) Dispose() (res DisposeResult) {
	i.mu.Lock()
	defer i.mu.Unlock()
	res.ID = i.Mount.ID
	if i.sketch == nil {
		return res
	}
	s := i.sketch
	i.sketch = nil
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("dispose %s panicked: %v", res.ID, r)
		}
	}()
	res.Err = s.Dispose()
	return res
}
