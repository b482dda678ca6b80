// Package markdown turns post sources into metadata and HTML.
//
// The default "lite" engine is a small line scanner: fenced code, headings,
// list items, blockquotes and paragraphs with inline code, bold and italic.
// The "goldmark" engine renders the body as CommonMark with GFM extensions.
// Both share the frontmatter handling.
package markdown

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
)

const (
	EngineLite     = "lite"
	EngineGoldmark = "goldmark"
)

// Defaults apply to every key missing from a post's frontmatter.
var Defaults = map[string]string{
	"title":    "Untitled Post",
	"date":     "Unknown",
	"category": "General",
	"readTime": "5 min read",
}

// Document is the result of a transform.
type Document struct {
	Meta map[string]string
	HTML string
}

// Transformer converts a raw post. Implementations are pure: the same input
// always yields the same Document.
type Transformer interface {
	Transform(raw []byte) (Document, error)
}

// Options configures New.
type Options struct {
	Engine       string
	Sanitize     bool
	WrapAllLists bool
	// LinkPrefix replaces the directory of links to *.md files in the
	// goldmark engine, e.g. "/blog/" turns "other.md" into "/blog/other".
	LinkPrefix string
}

// New returns the transformer selected by opts.
func New(opts Options) (Transformer, error) {
	var body bodyRenderer
	switch opts.Engine {
	case "", EngineLite:
		body = liteRenderer{opts: RenderOptions{WrapAllLists: opts.WrapAllLists}}
	case EngineGoldmark:
		body = newGoldmarkRenderer(opts.LinkPrefix)
	default:
		return nil, fmt.Errorf("unknown markdown engine %q", opts.Engine)
	}
	t := &transformer{body: body}
	if opts.Sanitize {
		t.policy = bluemonday.UGCPolicy()
	}
	return t, nil
}

type bodyRenderer interface {
	render(body []byte) (string, error)
}

type transformer struct {
	body   bodyRenderer
	policy *bluemonday.Policy
}

func (t *transformer) Transform(raw []byte) (Document, error) {
	fm, body, _ := ParseFrontMatter(raw)

	meta := make(map[string]string, len(Defaults)+len(fm))
	for k, v := range Defaults {
		meta[k] = v
	}
	for k, v := range fm {
		meta[k] = v
	}

	html, err := t.body.render(body)
	if err != nil {
		return Document{}, err
	}
	if t.policy != nil {
		html = t.policy.Sanitize(html)
	}
	return Document{Meta: meta, HTML: html}, nil
}

type liteRenderer struct {
	opts RenderOptions
}

func (r liteRenderer) render(body []byte) (string, error) {
	return RenderHTML(Scan(string(body)), r.opts), nil
}
