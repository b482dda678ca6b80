// Package blog lists and loads markdown posts.
package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"folio/internal/catalog"
	"folio/internal/fetch"
	"folio/internal/markdown"
)

const (
	IndexPath = "/blog/index.json"
	postsDir  = "/blog/posts/"
)

// ErrPostNotFound is returned when a post cannot be fetched.
var ErrPostNotFound = errors.New("post not found")

// Entry is one post in the blog catalog.
type Entry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Category string `json:"category"`
	ReadTime string `json:"readTime"`
	Excerpt  string `json:"excerpt"`
}

// Post is a rendered post.
type Post struct {
	ID       string
	Title    string
	Date     string
	Category string
	ReadTime string
	Content  string
	// Meta holds every frontmatter key, defaults included.
	Meta map[string]string
}

// PostPath is where the source of post id lives on the content origin.
func PostPath(id string) string {
	return postsDir + id + ".md"
}

// Loader serves the blog catalog and caches rendered posts for its lifetime.
type Loader struct {
	catalog     *catalog.Loader[Entry]
	fetcher     fetch.Fetcher
	transformer markdown.Transformer
	log         logrus.FieldLogger

	mu    sync.Mutex
	posts map[string]*Post
}

// NewLoader creates a loader reading from fetcher.
func NewLoader(fetcher fetch.Fetcher, transformer markdown.Transformer, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("area", "blog")
	return &Loader{
		catalog:     catalog.New(fetcher, IndexPath, FallbackPosts, log),
		fetcher:     fetcher,
		transformer: transformer,
		log:         log,
		posts:       make(map[string]*Post),
	}
}

// Posts returns the catalog, loading it on first use.
func (l *Loader) Posts(ctx context.Context) []Entry {
	return l.catalog.Entries(ctx)
}

// Post returns the rendered post id. The id does not need to be listed in
// the catalog. Failed fetches are not cached.
func (l *Loader) Post(ctx context.Context, id string) (*Post, error) {
	l.catalog.Init(ctx)

	if post, ok := l.cached(id); ok {
		return post, nil
	}

	log := l.log.WithField("post", id)
	if !validID(id) {
		log.Warn("rejecting invalid post id")
		return nil, fmt.Errorf("%w: %q", ErrPostNotFound, id)
	}

	raw, err := l.fetcher.Fetch(ctx, PostPath(id))
	if err != nil {
		log.WithError(err).Error("failed to load blog post")
		return nil, fmt.Errorf("%w: %s: %w", ErrPostNotFound, id, err)
	}

	post, err := l.parse(id, raw)
	if err != nil {
		log.WithError(err).Error("failed to render blog post")
		return nil, err
	}

	l.mu.Lock()
	l.posts[id] = post
	l.mu.Unlock()
	return post, nil
}

func (l *Loader) cached(id string) (*Post, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	post, ok := l.posts[id]
	return post, ok
}

func (l *Loader) parse(id string, raw []byte) (*Post, error) {
	doc, err := l.transformer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("rendering post %s: %w", id, err)
	}
	return &Post{
		ID:       id,
		Title:    doc.Meta["title"],
		Date:     doc.Meta["date"],
		Category: doc.Meta["category"],
		ReadTime: doc.Meta["readTime"],
		Content:  doc.HTML,
		Meta:     doc.Meta,
	}, nil
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// FallbackPosts is the catalog used when the blog index cannot be loaded.
func FallbackPosts() []Entry {
	return []Entry{
		{
			ID:       "event-driven",
			Title:    "Event-Driven Architecture with NATS JetStream",
			Date:     "2024.12.20",
			Category: "Platform Engineering",
			ReadTime: "10 min read",
			Excerpt:  "How we achieved zero event loss and real-time data processing by migrating to NATS JetStream across our microservices...",
		},
		{
			ID:       "self-hosting",
			Title:    "Self-Hosting AI Models on Kubernetes",
			Date:     "2024.11.08",
			Category: "DevOps",
			ReadTime: "12 min read",
			Excerpt:  "A guide to deploying and scaling LLMs on your own K8s cluster, including resource optimization and cost analysis...",
		},
	}
}
