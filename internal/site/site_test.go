package site

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/art"
	"folio/internal/config"
	"folio/internal/fetch"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

const helloPost = `---
title: Hello
date: 2025.01.01
description: "First words"
---
Some **bold** text.
`

func newTestSite(t *testing.T, mutate func(*config.SiteConfig)) *Site {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"blog/index.json":      `[{"id":"hello","title":"Hello"},{"id":"ghost","title":"Ghost"}]`,
		"blog/posts/hello.md":  helloPost,
		"art/index.json":       `[{"id":"neon-orbits","title":"Neon Orbits","script":"/art/sketches/neon-orbits.js"}]`,
		"static/css/style.css": "body{}",
		"static/notes.md":      "not an asset",
	})
	cfg := config.Default()
	cfg.Title = "Test Folio"
	cfg.ContentDir = dir
	cfg.Canvas = config.CanvasConfig{Width: 32, Height: 24, Frames: 2}
	if mutate != nil {
		mutate(&cfg)
	}
	log, _ := test.NewNullLogger()
	s, err := New(cfg, log)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuildWritesStaticSite(t *testing.T) {
	s := newTestSite(t, nil)
	out := t.TempDir()
	writeFiles(t, out, map[string]string{"stale.html": "old"})

	stats, err := s.Build(context.Background(), out, BuildOptions{CleanDestination: true})
	require.NoError(t, err)

	assert.Equal(t, BuildStats{Pages: 4, Images: 1, Skipped: 1, Assets: 1}, stats)
	assert.NoFileExists(t, filepath.Join(out, "stale.html"))
	assert.NoFileExists(t, filepath.Join(out, "blog", "ghost.html"))
	assert.FileExists(t, filepath.Join(out, "art", "neon-orbits.png"))
	assert.FileExists(t, filepath.Join(out, "static", "css", "style.css"))
	assert.NoFileExists(t, filepath.Join(out, "static", "notes.md"))

	home := readFile(t, filepath.Join(out, "index.html"))
	assert.Contains(t, home, `href="blog/index.html"`)
	assert.Contains(t, home, "Test Folio")

	post := readFile(t, filepath.Join(out, "blog", "hello.html"))
	assert.Contains(t, post, "<strong>bold</strong>")
	assert.Contains(t, post, `href="../static/css/style.css"`)
	assert.Contains(t, post, `content="First words"`)

	list := readFile(t, filepath.Join(out, "blog", "index.html"))
	assert.Contains(t, list, `href="../blog/hello.html"`)

	gallery := readFile(t, filepath.Join(out, "art", "index.html"))
	assert.Contains(t, gallery, `src="../art/neon-orbits.png"`)
}

func TestBuildWithoutCleanKeepsFiles(t *testing.T) {
	s := newTestSite(t, nil)
	out := t.TempDir()
	writeFiles(t, out, map[string]string{"keep.txt": "x"})

	_, err := s.Build(context.Background(), out, BuildOptions{})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "keep.txt"))
}

func TestPostPageNotFound(t *testing.T) {
	s := newTestSite(t, nil)

	_, err := s.PostPage(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestPostPageServesCachedPost(t *testing.T) {
	s := newTestSite(t, nil)
	ctx := context.Background()

	first, err := s.PostPage(ctx, "hello")
	require.NoError(t, err)
	second, err := s.PostPage(ctx, "hello")
	require.NoError(t, err)

	assert.Same(t, first.Post, second.Post)
	assert.Equal(t, 1, s.Fetches.Count("/blog/posts/hello.md"))
	assert.Equal(t, "Hello", first.Title)
}

func TestWriteSnapshotRendersOnDemand(t *testing.T) {
	s := newTestSite(t, nil)
	var buf bytes.Buffer

	require.NoError(t, s.WriteSnapshot(context.Background(), &buf, "neon-orbits"))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}

func TestWriteSnapshotUnknownSketch(t *testing.T) {
	s := newTestSite(t, nil)

	err := s.WriteSnapshot(context.Background(), &bytes.Buffer{}, "nope")
	assert.ErrorIs(t, err, art.ErrNoInstance)
	assert.True(t, IsNotFound(err))
}

func TestVerifyScriptsAbortsGallery(t *testing.T) {
	s := newTestSite(t, func(cfg *config.SiteConfig) { cfg.VerifyScripts = true })

	_, err := s.GalleryPage(context.Background())
	assert.ErrorIs(t, err, art.ErrScriptLoad)
	assert.ErrorIs(t, err, fetch.ErrNotFound)
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = "troff"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNewFetcherPicksOrigin(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &fetch.DirFetcher{}, NewFetcher(cfg))

	cfg.ContentURL = "https://example.com"
	assert.IsType(t, &fetch.HTTPFetcher{}, NewFetcher(cfg))
}

func TestLoadTemplatesFromDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"layout.html": `{{ define "main" }}<html>{{ template "header" . }}{{ template "content" . }}{{ template "footer" . }}</html>{{ end }}`,
		"header.html": `{{ define "header" }}<h>{{ .Site.Title }}</h>{{ end }}`,
		"footer.html": `{{ define "footer" }}<f></f>{{ end }}`,
	}
	for _, name := range pageNames {
		files[name+".html"] = `{{ define "content" }}page:` + name + `{{ end }}`
	}
	writeFiles(t, dir, files)

	pages, err := LoadTemplates(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pages.Render(&buf, PageGallery, PageData{Site: config.SiteConfig{Title: "T"}}))
	assert.Equal(t, "<html><h>T</h>page:gallery<f></f></html>", buf.String())

	assert.Error(t, pages.Render(&buf, "missing", PageData{}))
}

func TestLoadTemplatesMissingPage(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"layout.html": `{{ define "main" }}{{ end }}`,
		"header.html": `{{ define "header" }}{{ end }}`,
		"footer.html": `{{ define "footer" }}{{ end }}`,
	})

	_, err := LoadTemplates(dir)
	assert.Error(t, err)
}
