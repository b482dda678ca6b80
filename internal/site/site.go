// Package site wires the content origin, the blog and the gallery together
// and renders their pages.
package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"image/png"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"folio/internal/art"
	"folio/internal/art/sketches"
	"folio/internal/blog"
	"folio/internal/config"
	"folio/internal/fetch"
	"folio/internal/markdown"
)

// Site is one loaded configuration with its loaders. Catalogs and posts are
// cached for the lifetime of the Site; build a new one to pick up changes.
type Site struct {
	Config  config.SiteConfig
	Fetches *fetch.Counting
	Blog    *blog.Loader
	Gallery *art.Gallery
	Scripts *art.ScriptHost

	pages *Pages
	log   logrus.FieldLogger
}

// NewFetcher returns the fetcher for the configured content origin.
func NewFetcher(cfg config.SiteConfig) fetch.Fetcher {
	if cfg.ContentURL != "" {
		return fetch.NewHTTPFetcher(cfg.ContentURL, nil, cfg.Timeout())
	}
	return fetch.NewDirFetcher(os.DirFS(cfg.ContentDir))
}

// New builds a site from cfg.
func New(cfg config.SiteConfig, log logrus.FieldLogger) (*Site, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	transformer, err := markdown.New(markdown.Options{
		Engine:       cfg.Engine,
		Sanitize:     cfg.Sanitize,
		WrapAllLists: cfg.WrapAllLists,
		LinkPrefix:   "/blog/",
	})
	if err != nil {
		return nil, err
	}
	pages, err := LoadTemplates(cfg.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	fetches := fetch.NewCounting(NewFetcher(cfg))
	registry := art.NewRegistry()
	scripts := art.NewScriptHost(registry, sketches.Scripts())
	if cfg.VerifyScripts {
		scripts.VerifyWith(fetches)
	}
	gallery := art.NewGallery(fetches, registry, scripts, art.GalleryOptions{
		Width:  cfg.Canvas.Width,
		Height: cfg.Canvas.Height,
	}, log)

	return &Site{
		Config:  cfg,
		Fetches: fetches,
		Blog:    blog.NewLoader(fetches, transformer, log),
		Gallery: gallery,
		Scripts: scripts,
		pages:   pages,
		log:     log,
	}, nil
}

// Close stops the running sketches.
func (s *Site) Close() {
	s.Gallery.Close()
}

func (s *Site) page(title string) PageData {
	return PageData{Title: title, Site: s.Config}
}

// HomePage returns the data of the landing page.
func (s *Site) HomePage(ctx context.Context) PageData {
	data := s.page("Home")
	data.Posts = s.Blog.Posts(ctx)
	return data
}

// PostsPage returns the data of the post list.
func (s *Site) PostsPage(ctx context.Context) PageData {
	data := s.page("Blog")
	data.Posts = s.Blog.Posts(ctx)
	return data
}

// PostPage loads post id. Errors match blog.ErrPostNotFound when the post
// cannot be fetched.
func (s *Site) PostPage(ctx context.Context, id string) (PageData, error) {
	post, err := s.Blog.Post(ctx, id)
	if err != nil {
		return PageData{}, err
	}
	data := s.page(post.Title)
	data.Post = post
	data.Content = template.HTML(post.Content)
	if d, ok := post.Meta["description"]; ok {
		data.Description = d
	}
	return data, nil
}

// GalleryPage runs a render pass and returns its mounts.
func (s *Site) GalleryPage(ctx context.Context) (PageData, error) {
	mounts, err := s.Gallery.RenderAll(ctx)
	if err != nil {
		return PageData{}, err
	}
	data := s.page("Art")
	data.Mounts = mounts
	return data, nil
}

// Render writes page with data.
func (s *Site) Render(w io.Writer, page string, data PageData) error {
	return s.pages.Render(w, page, data)
}

// WriteSnapshot advances sketch id by the configured number of frames and
// writes the canvas as PNG. A gallery that has not rendered yet runs one
// pass first.
func (s *Site) WriteSnapshot(ctx context.Context, w io.Writer, id string) error {
	if len(s.Gallery.Instances()) == 0 {
		if _, err := s.Gallery.RenderAll(ctx); err != nil {
			return err
		}
	}
	img, err := s.Gallery.Snapshot(id, s.Config.Canvas.Frames)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// IsNotFound reports whether err means the requested post or sketch does
// not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, blog.ErrPostNotFound) || errors.Is(err, art.ErrNoInstance)
}
