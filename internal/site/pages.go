package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
)

//go:embed templates/*.html
var embedded embed.FS

// Page names.
const (
	PageHome    = "home"
	PagePosts   = "blog"
	PagePost    = "post"
	PageGallery = "gallery"
)

var pageNames = []string{PageHome, PagePosts, PagePost, PageGallery}

// Pages holds one template set per page, each a clone of the base layout
// with the page's "content" definition.
type Pages struct {
	sets map[string]*template.Template
}

// LoadTemplates parses the page templates. An empty dir selects the
// embedded set; otherwise dir must hold layout.html, header.html,
// footer.html and one file per page.
func LoadTemplates(dir string) (*Pages, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	return parsePages(fsys)
}

func parsePages(fsys fs.FS) (*Pages, error) {
	base, err := template.ParseFS(fsys, "layout.html", "header.html", "footer.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	p := &Pages{sets: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		set, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := set.ParseFS(fsys, name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		p.sets[name] = set
	}
	return p, nil
}

// Render writes page to w.
func (p *Pages) Render(w io.Writer, page string, data PageData) error {
	set, ok := p.sets[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	// "main" is the name of the template defined within the layout file.
	return set.ExecuteTemplate(w, "main", data)
}
