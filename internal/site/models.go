package site

import (
	"html/template"

	"folio/internal/art"
	"folio/internal/blog"
	"folio/internal/config"
)

// PageData is the struct passed to templates.
type PageData struct {
	Content     template.HTML
	Title       string
	Description string
	// BaseHref is the path to the site root: relative in a static export,
	// "/" on the dev server.
	BaseHref string
	// Ext is appended to page links: ".html" in a static export.
	Ext  string
	Site config.SiteConfig

	Posts  []blog.Entry
	Post   *blog.Post
	Mounts []*art.Mount
}
