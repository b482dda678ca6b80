package markdown

import (
	"strconv"
	"strings"
)

// RenderOptions controls the HTML pass of the lite engine.
type RenderOptions struct {
	// WrapAllLists wraps every run of list items in <ul>. By default only
	// the first run in the document is wrapped and later items are emitted
	// as bare <li> elements.
	WrapAllLists bool
}

// RenderHTML renders a block list. Block elements are joined by newlines
// and are never wrapped in a paragraph.
func RenderHTML(blocks []Block, opts RenderOptions) string {
	var parts []string
	wrapped := false
	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		switch b.Kind {
		case Heading:
			tag := "h" + strconv.Itoa(b.Level)
			parts = append(parts, "<"+tag+">"+b.HTML+"</"+tag+">")
		case Code:
			parts = append(parts, "<pre><code>"+b.Text+"</code></pre>")
		case Quote:
			parts = append(parts, "<blockquote>"+b.HTML+"</blockquote>")
		case Paragraph:
			if strings.TrimSpace(b.HTML) != "" {
				parts = append(parts, "<p>"+b.HTML+"</p>")
			}
		case ListItem:
			j := i
			var items []string
			for ; j < len(blocks) && blocks[j].Kind == ListItem; j++ {
				items = append(items, "<li>"+blocks[j].HTML+"</li>")
			}
			if !wrapped || opts.WrapAllLists {
				parts = append(parts, "<ul>"+strings.Join(items, "\n")+"</ul>")
				wrapped = true
			} else {
				parts = append(parts, items...)
			}
			i = j - 1
		}
	}
	return strings.Join(parts, "\n")
}
