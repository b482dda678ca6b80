package markdown

import (
	"regexp"
	"strings"
)

// Kind identifies a block produced by the scanner.
type Kind int

const (
	// Text is an unclassified source line. No Text blocks survive Scan.
	Text Kind = iota
	Paragraph
	Heading
	Code
	ListItem
	Quote
)

func (k Kind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case Code:
		return "code"
	case ListItem:
		return "list-item"
	case Quote:
		return "quote"
	}
	return "text"
}

// Block is one element of the intermediate document. Text holds the source
// text; HTML holds the inline-rendered text and is empty for Code.
type Block struct {
	Kind  Kind
	Level int
	Lang  string
	Text  string
	HTML  string
}

var (
	fenceOpen  = regexp.MustCompile("^```(\\w+)?$")
	orderedRe  = regexp.MustCompile(`^\d+\. `)
	headingPfx = []struct {
		prefix string
		level  int
	}{
		{"### ", 3},
		{"## ", 2},
		{"# ", 1},
	}
)

// stages run in order over the scanned lines. Fences are cut out before any
// stage runs, so nothing below touches code.
var stages = []func([]Block) []Block{
	markHeadings,
	markListItems,
	markQuotes,
	groupParagraphs,
	renderInlineText,
}

// Scan turns a markdown body into its block list.
func Scan(body string) []Block {
	blocks := scanFences(splitLines(body))
	for _, stage := range stages {
		blocks = stage(blocks)
	}
	return blocks
}

func splitLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.Split(body, "\n")
}

// scanFences emits a Code block for every terminated ``` fence and a Text
// block for every other line. An unterminated opening fence stays text.
func scanFences(lines []string) []Block {
	var out []Block
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		m := fenceOpen.FindStringSubmatch(line)
		if m == nil {
			out = append(out, Block{Kind: Text, Text: lines[i]})
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimRight(lines[j], " \t") == "```" {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, Block{Kind: Text, Text: lines[i]})
			continue
		}
		var code strings.Builder
		for _, l := range lines[i+1 : end] {
			code.WriteString(l)
			code.WriteByte('\n')
		}
		out = append(out, Block{Kind: Code, Lang: m[1], Text: code.String()})
		i = end
	}
	return out
}

func markHeadings(blocks []Block) []Block {
	for i, b := range blocks {
		if b.Kind != Text {
			continue
		}
		for _, h := range headingPfx {
			if strings.HasPrefix(b.Text, h.prefix) {
				blocks[i] = Block{Kind: Heading, Level: h.level, Text: strings.TrimPrefix(b.Text, h.prefix)}
				break
			}
		}
	}
	return blocks
}

func markListItems(blocks []Block) []Block {
	for i, b := range blocks {
		if b.Kind != Text {
			continue
		}
		if strings.HasPrefix(b.Text, "- ") {
			blocks[i] = Block{Kind: ListItem, Text: b.Text[2:]}
		} else if loc := orderedRe.FindStringIndex(b.Text); loc != nil {
			blocks[i] = Block{Kind: ListItem, Text: b.Text[loc[1]:]}
		}
	}
	return blocks
}

func markQuotes(blocks []Block) []Block {
	for i, b := range blocks {
		if b.Kind == Text && strings.HasPrefix(b.Text, "> ") {
			blocks[i] = Block{Kind: Quote, Text: b.Text[2:]}
		}
	}
	return blocks
}

// groupParagraphs merges runs of adjacent Text lines into paragraphs. Blank
// lines end a paragraph and are dropped.
func groupParagraphs(blocks []Block) []Block {
	var (
		out  []Block
		para []string
	)
	flush := func() {
		if len(para) > 0 {
			out = append(out, Block{Kind: Paragraph, Text: strings.Join(para, "\n")})
			para = nil
		}
	}
	for _, b := range blocks {
		if b.Kind != Text {
			flush()
			out = append(out, b)
			continue
		}
		if strings.TrimSpace(b.Text) == "" {
			flush()
			continue
		}
		para = append(para, b.Text)
	}
	flush()
	return out
}

func renderInlineText(blocks []Block) []Block {
	for i := range blocks {
		if blocks[i].Kind != Code {
			blocks[i].HTML = renderInline(blocks[i].Text)
		}
	}
	return blocks
}
