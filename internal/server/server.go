// Package server is the development server: it renders pages from the
// current Site, serves sketch snapshots and reloads browsers when the
// content changes.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"folio/internal/site"
)

// Loader builds a fresh Site, typically from site.yaml.
type Loader func() (*site.Site, error)

// Server serves the current Site. Reload swaps it for a freshly loaded one.
type Server struct {
	load Loader
	hub  *Hub
	log  logrus.FieldLogger

	mu   sync.RWMutex
	site *site.Site
}

// New loads the initial site.
func New(load Loader, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("area", "server")
	st, err := load()
	if err != nil {
		return nil, fmt.Errorf("initial load failed: %w", err)
	}
	return &Server{load: load, hub: newHub(log), log: log, site: st}, nil
}

// Site returns the site currently served.
func (s *Server) Site() *site.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.site
}

// Reload replaces the site and tells every browser to reload. On error the
// previous site stays in place.
func (s *Server) Reload() error {
	next, err := s.load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	prev := s.site
	s.site = next
	s.mu.Unlock()
	prev.Close()
	s.hub.broadcastMessage([]byte("reload"))
	return nil
}

// Close stops the sketches of the current site.
func (s *Server) Close() {
	s.Site().Close()
}

// Handler returns the routes of the dev server.
func (s *Server) Handler() http.Handler {
	pages := http.NewServeMux()
	pages.HandleFunc("/", s.handleHome)
	pages.HandleFunc("/blog/", s.handleBlog)
	pages.HandleFunc("/art/", s.handleArt)
	pages.HandleFunc("/stats", s.handleStats)
	pages.HandleFunc("/static/", s.handleStatic)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.hub, w, r)
	})
	mux.Handle("/", liveReloadWrapper(pages))
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	st := s.Site()
	s.renderPage(w, st, site.PageHome, st.HomePage(r.Context()))
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	st := s.Site()
	id := strings.TrimPrefix(r.URL.Path, "/blog/")
	if id == "" {
		s.renderPage(w, st, site.PagePosts, st.PostsPage(r.Context()))
		return
	}
	if strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	data, err := st.PostPage(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderPage(w, st, site.PagePost, data)
}

func (s *Server) handleArt(w http.ResponseWriter, r *http.Request) {
	st := s.Site()
	name := strings.TrimPrefix(r.URL.Path, "/art/")
	if name == "" {
		data, err := st.GalleryPage(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderPage(w, st, site.PageGallery, data)
		return
	}
	id, ok := strings.CutSuffix(name, ".png")
	if !ok || id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := st.WriteSnapshot(r.Context(), &buf, id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

type stats struct {
	Total int            `json:"total"`
	Paths map[string]int `json:"paths"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	fetches := s.Site().Fetches
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats{Total: fetches.Total(), Paths: fetches.Counts()})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	cfg := s.Site().Config
	if cfg.ContentURL != "" {
		http.NotFound(w, r)
		return
	}
	dir := http.Dir(filepath.Join(cfg.ContentDir, "static"))
	http.StripPrefix("/static/", http.FileServer(dir)).ServeHTTP(w, r)
}

func (s *Server) renderPage(w http.ResponseWriter, st *site.Site, page string, data site.PageData) {
	data.BaseHref = "/"
	var buf bytes.Buffer
	if err := st.Render(&buf, page, data); err != nil {
		s.log.WithField("page", page).WithError(err).Error("failed to render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if site.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	s.log.WithField("path", r.URL.Path).WithError(err).Error("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// Watch reloads the site whenever something below paths changes, until ctx
// is done. Files are watched through their parent directory so editors that
// save by rename are seen.
func (s *Server) Watch(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}

	watchedDirs := make(map[string]bool)
	addWatch := func(dir string) {
		dir = filepath.Clean(dir)
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			s.log.WithField("path", dir).WithError(err).Warn("could not watch directory")
			return
		}
		s.log.WithField("path", dir).Debug("watching directory")
		watchedDirs[dir] = true
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			watcher.Close()
			return fmt.Errorf("could not stat path %s: %w", path, err)
		}
		if !info.IsDir() {
			addWatch(filepath.Dir(path))
			continue
		}
		if err := filepath.Walk(path, func(walkPath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				addWatch(walkPath)
			}
			return nil
		}); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
	}

	go func() {
		defer watcher.Close()
		s.watchForChanges(ctx, watcher)
	}()
	return nil
}

func (s *Server) watchForChanges(ctx context.Context, watcher *fsnotify.Watcher) {
	var lastReload time.Time
	const debounceDuration = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if time.Since(lastReload) <= debounceDuration {
				continue
			}
			time.Sleep(100 * time.Millisecond)

			log := s.log.WithField("path", event.Name)
			log.Info("change detected, reloading")
			if err := s.Reload(); err != nil {
				log.WithError(err).Error("reload failed")
			}
			lastReload = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.WithError(err).Warn("watcher error")
		}
	}
}

// Run serves on port until ctx is done, reloading on changes below watch.
func Run(ctx context.Context, port int, load Loader, watch []string, log logrus.FieldLogger) error {
	srv, err := New(load, log)
	if err != nil {
		return err
	}
	defer srv.Close()
	if err := srv.Watch(ctx, watch); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	srv.log.WithField("addr", "http://localhost"+httpServer.Addr).Info("serving site")
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// liveReloadWrapper disables caching and injects the reload script into
// successful HTML responses.
func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		iw := newInterceptingWriter(w)
		next.ServeHTTP(iw, r)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		body := iw.body.Bytes()
		isHTML := strings.HasPrefix(iw.Header().Get("Content-Type"), "text/html")
		if iw.statusCode != http.StatusOK || !isHTML {
			w.WriteHeader(iw.statusCode)
			w.Write(body)
			return
		}

		injected := bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
		w.Header().Set("Content-Length", fmt.Sprint(len(injected)))
		w.WriteHeader(iw.statusCode)
		w.Write(injected)
	})
}

type interceptingWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter(w http.ResponseWriter) *interceptingWriter {
	return &interceptingWriter{
		ResponseWriter: w,
		body:           new(bytes.Buffer),
		header:         make(http.Header),
		statusCode:     http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection error. Please restart 'folio serve'.");
    };
  })();
</script>
`
