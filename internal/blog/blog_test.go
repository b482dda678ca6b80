package blog

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/fetch"
	"folio/internal/markdown"
)

func newTestLoader(t *testing.T, files fstest.MapFS) (*Loader, *fetch.Counting, *test.Hook) {
	t.Helper()
	tr, err := markdown.New(markdown.Options{})
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	counter := fetch.NewCounting(fetch.NewDirFetcher(files))
	return NewLoader(counter, tr, logger), counter, hook
}

func TestPostsFromIndex(t *testing.T) {
	l, _, _ := newTestLoader(t, fstest.MapFS{
		"blog/index.json": {Data: []byte(`[{"id":"hello","title":"Hello","date":"2025.01.01","category":"Go","readTime":"1 min read","excerpt":"Hi"}]`)},
	})

	posts := l.Posts(context.Background())
	require.Len(t, posts, 1)
	assert.Equal(t, Entry{ID: "hello", Title: "Hello", Date: "2025.01.01", Category: "Go", ReadTime: "1 min read", Excerpt: "Hi"}, posts[0])
}

func TestPostsFallback(t *testing.T) {
	l, _, hook := newTestLoader(t, fstest.MapFS{})

	posts := l.Posts(context.Background())
	assert.Equal(t, FallbackPosts(), posts)
	assert.Equal(t, "event-driven", posts[0].ID)
	assert.Equal(t, "self-hosting", posts[1].ID)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestPostIsCached(t *testing.T) {
	l, counter, _ := newTestLoader(t, fstest.MapFS{
		"blog/posts/hello.md": {Data: []byte("---\ntitle: \"Hi\"\ncategory: Go\n---\nHello")},
	})
	ctx := context.Background()

	first, err := l.Post(ctx, "hello")
	require.NoError(t, err)
	second, err := l.Post(ctx, "hello")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, counter.Count(PostPath("hello")))
	assert.Equal(t, 1, counter.Count(IndexPath), "catalog is initialized once")

	assert.Equal(t, "hello", first.ID)
	assert.Equal(t, "Hi", first.Title)
	assert.Equal(t, "Go", first.Category)
	assert.Equal(t, "Unknown", first.Date)
	assert.Equal(t, "5 min read", first.ReadTime)
	assert.Equal(t, "<p>Hello</p>", first.Content)
}

func TestPostNotInCatalogIsStillFetched(t *testing.T) {
	l, _, _ := newTestLoader(t, fstest.MapFS{
		"blog/index.json":      {Data: []byte(`[]`)},
		"blog/posts/secret.md": {Data: []byte("# Secret")},
	})

	post, err := l.Post(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "Untitled Post", post.Title)
	assert.Equal(t, "<h1>Secret</h1>", post.Content)
}

func TestMissingPostIsNotCached(t *testing.T) {
	files := fstest.MapFS{}
	l, counter, hook := newTestLoader(t, files)
	ctx := context.Background()

	post, err := l.Post(ctx, "later")
	assert.Nil(t, post)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, err, fetch.ErrNotFound)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	files["blog/posts/later.md"] = &fstest.MapFile{Data: []byte("Now here")}
	post, err = l.Post(ctx, "later")
	require.NoError(t, err)
	assert.Equal(t, "<p>Now here</p>", post.Content)
	assert.Equal(t, 2, counter.Count(PostPath("later")))
}

func TestInvalidIDIsNotFetched(t *testing.T) {
	l, counter, _ := newTestLoader(t, fstest.MapFS{})

	for _, id := range []string{"", "..", "../secret", `a\b`} {
		_, err := l.Post(context.Background(), id)
		assert.ErrorIs(t, err, ErrPostNotFound, "id %q", id)
	}
	assert.Equal(t, 1, counter.Total(), "only the catalog was fetched")
}
