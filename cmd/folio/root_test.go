package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/blog"
	"folio/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func newSite(t *testing.T) string {
	t.Helper()
	t.Setenv(config.ContentURLEnv, "")
	dir := filepath.Join(t.TempDir(), "site")
	_, err := run(t, "new", "site", dir)
	require.NoError(t, err)
	return filepath.Join(dir, configFile)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "folio dev (commit: none, built: unknown)\n", out)
}

func TestPostsAndPost(t *testing.T) {
	cfg := newSite(t)

	out, err := run(t, "--config", cfg, "new", "post", "Second Thoughts", "--category", "Notes")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("blog", "posts", "second-thoughts.md"))

	out, err = run(t, "--config", cfg, "posts")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^ID\s+DATE\s+CATEGORY\s+TITLE$`, lines[0])
	assert.Regexp(t, `^second-thoughts\s+\S+\s+Notes\s+Second Thoughts$`, lines[1])
	assert.Regexp(t, `^hello-world\s`, lines[2])

	out, err = run(t, "--config", cfg, "post", "second-thoughts")
	require.NoError(t, err)
	assert.Contains(t, out, "<!-- Second Thoughts |")
	assert.Contains(t, out, "<h1>Second Thoughts</h1>")

	out, err = run(t, "--config", cfg, "post", "second-thoughts", "--engine", "goldmark")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="second-thoughts">Second Thoughts</h1>`)

	_, err = run(t, "--config", cfg, "post", "ghost")
	assert.ErrorIs(t, err, blog.ErrPostNotFound)

	_, err = run(t, "--config", cfg, "post", "hello-world", "--engine", "troff")
	assert.Error(t, err)
}

func TestGallery(t *testing.T) {
	cfg := newSite(t)
	out := filepath.Join(t.TempDir(), "png")

	stdout, err := run(t, "--config", cfg, "gallery", "--out", out, "--frames", "2")
	require.NoError(t, err)
	assert.Equal(t, "Wrote 2 sketches to "+out+".\n", stdout)
	assert.FileExists(t, filepath.Join(out, "neon-orbits.png"))
	assert.FileExists(t, filepath.Join(out, "matrix-flow.png"))
}

func TestBuild(t *testing.T) {
	cfg := newSite(t)
	out := filepath.Join(t.TempDir(), "public")

	stdout, err := run(t, "--config", cfg, "build", "--out", out, "--frames", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Generated 4 pages, 2 images, 1 assets")
	assert.FileExists(t, filepath.Join(out, "blog", "hello-world.html"))
	assert.FileExists(t, filepath.Join(out, "static", "css", "style.css"))
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: pandoc\n"), 0644))

	_, err := run(t, "--config", path, "posts")
	assert.ErrorContains(t, err, "unknown engine")
}
