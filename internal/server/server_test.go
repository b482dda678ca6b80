package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
	"folio/internal/site"
)

func writeContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func newContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeContent(t, dir, map[string]string{
		"blog/index.json":      `[{"id":"hello","title":"Hello","excerpt":"Hi there"}]`,
		"blog/posts/hello.md":  "---\ntitle: Hello\n---\n# Greetings\n\nBody text.\n",
		"art/index.json":       `[{"id":"matrix-flow","title":"Matrix Flow","script":"/art/sketches/matrix-flow.js"}]`,
		"static/css/style.css": "body { color: red; }",
	})
	return dir
}

func loaderFor(dir string) Loader {
	return func() (*site.Site, error) {
		cfg := config.Default()
		cfg.ContentDir = dir
		cfg.Canvas = config.CanvasConfig{Width: 48, Height: 32, Frames: 1}
		log, _ := test.NewNullLogger()
		return site.New(cfg, log)
	}
}

func newTestServer(t *testing.T, dir string) (*Server, *httptest.Server) {
	t.Helper()
	log, _ := test.NewNullLogger()
	srv, err := New(loaderFor(dir), log)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestPages(t *testing.T) {
	_, ts := newTestServer(t, newContent(t))

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, `href="/blog/"`},
		{"/blog/", http.StatusOK, `href="/blog/hello"`},
		{"/blog/hello", http.StatusOK, "<h1>Greetings</h1>"},
		{"/blog/ghost", http.StatusNotFound, ""},
		{"/blog/a/b", http.StatusNotFound, ""},
		{"/art/", http.StatusOK, `src="/art/matrix-flow.png"`},
		{"/art/nope.png", http.StatusNotFound, ""},
		{"/art/matrix-flow.gif", http.StatusNotFound, ""},
		{"/nowhere", http.StatusNotFound, ""},
		{"/static/css/style.css", http.StatusOK, "color: red"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body, tt.contains)
			assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
		})
	}
}

func TestLiveReloadScriptOnlyInHTML(t *testing.T) {
	_, ts := newTestServer(t, newContent(t))

	_, page := get(t, ts.URL+"/blog/hello")
	assert.Contains(t, page, `new WebSocket("ws://"`)
	assert.Equal(t, 1, strings.Count(page, "</body>"))

	_, css := get(t, ts.URL+"/static/css/style.css")
	assert.NotContains(t, css, "WebSocket")

	resp, _ := get(t, ts.URL+"/blog/ghost")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSnapshotIsPNG(t *testing.T) {
	_, ts := newTestServer(t, newContent(t))

	resp, body := get(t, ts.URL+"/art/matrix-flow.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))
}

func TestStatsReportFetches(t *testing.T) {
	_, ts := newTestServer(t, newContent(t))
	get(t, ts.URL+"/blog/hello")
	get(t, ts.URL+"/blog/hello")

	resp, body := get(t, ts.URL+"/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got stats
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 1, got.Paths["/blog/posts/hello.md"])
	assert.Equal(t, 1, got.Paths["/blog/index.json"])
}

func dialReload(t *testing.T, srv *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return srv.hub.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestReloadSwapsSiteAndNotifies(t *testing.T) {
	srv, ts := newTestServer(t, newContent(t))
	conn := dialReload(t, srv, ts)
	before := srv.Site()

	require.NoError(t, srv.Reload())

	assert.NotSame(t, before, srv.Site())
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))
}

func TestFailedReloadKeepsSite(t *testing.T) {
	dir := newContent(t)
	calls := 0
	load := func() (*site.Site, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("broken config")
		}
		return loaderFor(dir)()
	}
	srv, err := New(load, nil)
	require.NoError(t, err)
	defer srv.Close()
	before := srv.Site()

	assert.Error(t, srv.Reload())
	assert.Same(t, before, srv.Site())
}

func TestNewFailsWhenInitialLoadFails(t *testing.T) {
	_, err := New(func() (*site.Site, error) { return nil, errors.New("nope") }, nil)
	assert.ErrorContains(t, err, "initial load failed")
}

func TestWatchReloadsOnContentChange(t *testing.T) {
	dir := newContent(t)
	srv, ts := newTestServer(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Watch(ctx, []string{dir, filepath.Join(dir, "missing.yaml")}))
	conn := dialReload(t, srv, ts)

	writeContent(t, dir, map[string]string{"blog/posts/new.md": "# New"})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))
}
