// Package scaffold creates new sites and posts.
package scaffold

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"folio/internal/art"
	"folio/internal/blog"
	"folio/internal/util"
)

// DateLayout is the date format of post frontmatter and the blog index.
const DateLayout = "2006.01.02"

// ErrPostExists is returned when the post file is already there.
var ErrPostExists = errors.New("post already exists")

// CreateNewSite writes a runnable site skeleton into name.
func CreateNewSite(name string, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithField("path", name).Info("scaffolding new site")

	mkdir := func(path string) error { return os.MkdirAll(filepath.Join(name, path), 0755) }
	writeFile := func(path, content string) error {
		return os.WriteFile(filepath.Join(name, path), []byte(content), 0644)
	}
	dirs := []string{"content/blog/posts", "content/art/sketches", "content/static/css", "archetypes"}
	for _, dir := range dirs {
		if err := mkdir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	artIndex, err := json.MarshalIndent(art.FallbackSketches(), "", "  ")
	if err != nil {
		return err
	}
	files := map[string]string{
		"site.yaml":                           siteYamlContent,
		"archetypes/post.md":                  archetypePostContent,
		"content/static/css/style.css":        staticCssContent,
		"content/blog/index.json":             "[]\n",
		"content/art/index.json":              string(artIndex) + "\n",
		"content/art/sketches/neon-orbits.js": "// built-in sketch: neon-orbits\n",
		"content/art/sketches/matrix-flow.js": "// built-in sketch: matrix-flow\n",
	}
	for path, content := range files {
		if err := writeFile(path, content); err != nil {
			return fmt.Errorf("failed to write file %s: %w", path, err)
		}
	}

	if _, err := CreateNewPost("hello-world", PostOptions{
		ContentDir:   filepath.Join(name, "content"),
		ArchetypeDir: filepath.Join(name, "archetypes"),
		Excerpt:      "The first post of a new folio.",
	}); err != nil {
		return err
	}

	log.Info("site scaffolded, run `folio serve` inside it")
	return nil
}

// PostOptions configures CreateNewPost.
type PostOptions struct {
	ContentDir string
	// ArchetypeDir holds post.md; the built-in archetype is used when it
	// is empty or has no such file.
	ArchetypeDir string
	Author       string
	Category     string
	Excerpt      string
	// Date defaults to now.
	Date time.Time
}

type archetypeData struct {
	Title    string
	Date     string
	Category string
	Author   string
}

// CreateNewPost writes blog/posts/{slug}.md from the archetype and lists it
// first in blog/index.json. It returns the path of the new post.
func CreateNewPost(slug string, opts PostOptions) (string, error) {
	id := util.Slugify(slug)
	if id == "" {
		return "", fmt.Errorf("invalid post slug %q", slug)
	}
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}
	if opts.Category == "" {
		opts.Category = "General"
	}
	data := archetypeData{
		Title:    TitleFromSlug(id),
		Date:     opts.Date.Format(DateLayout),
		Category: opts.Category,
		Author:   opts.Author,
	}

	path := filepath.Join(opts.ContentDir, filepath.FromSlash(strings.TrimPrefix(blog.PostPath(id), "/")))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", ErrPostExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	tmpl, err := loadArchetype(opts.ArchetypeDir)
	if err != nil {
		return "", err
	}
	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute archetype template: %w", err)
	}
	if err := os.WriteFile(path, output.Bytes(), 0644); err != nil {
		return "", err
	}

	entry := blog.Entry{
		ID:       id,
		Title:    data.Title,
		Date:     data.Date,
		Category: data.Category,
		ReadTime: "5 min read",
		Excerpt:  opts.Excerpt,
	}
	if err := prependIndex(filepath.Join(opts.ContentDir, filepath.FromSlash(strings.TrimPrefix(blog.IndexPath, "/"))), entry); err != nil {
		return "", err
	}
	return path, nil
}

// TitleFromSlug turns "self-hosting-ai" into "Self Hosting Ai".
func TitleFromSlug(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func loadArchetype(dir string) (*template.Template, error) {
	content := archetypePostContent
	if dir != "" {
		archetypePath := filepath.Join(dir, "post.md")
		b, err := os.ReadFile(archetypePath)
		switch {
		case err == nil:
			content = string(b)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("could not read archetype file %s: %w", archetypePath, err)
		}
	}
	tmpl, err := template.New("archetype").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archetype: %w", err)
	}
	return tmpl, nil
}

func prependIndex(path string, entry blog.Entry) error {
	var entries []blog.Entry
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("could not parse blog index %s: %w", path, err)
		}
	}

	kept := []blog.Entry{entry}
	for _, e := range entries {
		if e.ID != entry.ID {
			kept = append(kept, e)
		}
	}
	out, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0644)
}

const siteYamlContent = `title: My Folio
author: Your Name
description: Notes and generative art.
content_dir: content
engine: lite
fetch_timeout: 10s
port: 1313
canvas:
  width: 320
  height: 240
  frames: 60
`

const archetypePostContent = `---
title: "{{ .Title }}"
date: {{ .Date }}
category: {{ .Category }}
readTime: 5 min read
{{- if .Author }}
author: {{ .Author }}
{{- end }}
---
# {{ .Title }}

Write something meaningful here.
`

const staticCssContent = `body {
  font-family: monospace;
  max-width: 760px;
  margin: 2em auto;
  padding: 0 1em;
  line-height: 1.6;
  color: #d0d0d0;
  background: #0b0b10;
}
a { color: #00e5ff; }
.header-line {
  display: flex;
  justify-content: space-between;
  align-items: baseline;
  gap: 1em;
  margin-bottom: 2em;
  flex-wrap: wrap;
}
.site-author { font-size: 0.9em; color: #777; font-style: italic; }
nav a { margin: 0 0.5em; }
.post-meta span { margin-right: 1em; font-size: 0.85em; color: #888; }
.gallery { display: grid; grid-template-columns: repeat(auto-fill, minmax(320px, 1fr)); gap: 1em; }
.art-card img { width: 100%; height: auto; image-rendering: pixelated; }
pre { background: #15151d; padding: 1em; overflow-x: auto; }
blockquote { border-left: 3px solid #00e5ff; margin-left: 0; padding-left: 1em; }
footer { text-align: center; font-size: 0.9em; color: #555; margin-top: 3em; }
`
