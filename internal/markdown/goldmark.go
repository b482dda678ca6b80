package markdown

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type goldmarkRenderer struct {
	md goldmark.Markdown
}

func newGoldmarkRenderer(linkPrefix string) goldmarkRenderer {
	if linkPrefix == "" {
		linkPrefix = "/blog/"
	}
	return goldmarkRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithASTTransformers(
					util.Prioritized(&postLinkTransformer{prefix: linkPrefix}, 100),
				),
			),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (r goldmarkRenderer) render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown with goldmark: %w", err)
	}
	return buf.String(), nil
}

// postLinkTransformer points relative links to *.md files at the post route.
type postLinkTransformer struct {
	prefix string
}

func (t *postLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if strings.Contains(dest, "://") || !strings.HasSuffix(dest, ".md") {
			return ast.WalkContinue, nil
		}
		id := strings.TrimSuffix(path.Base(dest), ".md")
		link.Destination = []byte(t.prefix + id)
		return ast.WalkContinue, nil
	})
}
