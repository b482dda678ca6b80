package markdown

import (
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+)\*`)
)

// renderInline converts inline code, then bold, then italic. Code spans use
// single backticks only; longer backtick runs are literal. Emphasis is never
// applied inside a code span.
func renderInline(s string) string {
	var (
		out   strings.Builder
		plain strings.Builder
	)
	flush := func() {
		out.WriteString(emphasis(plain.String()))
		plain.Reset()
	}

	for i := 0; i < len(s); {
		if s[i] != '`' {
			plain.WriteByte(s[i])
			i++
			continue
		}
		run := tickRun(s, i)
		if run > 1 {
			plain.WriteString(s[i : i+run])
			i += run
			continue
		}
		end := strings.IndexByte(s[i+1:], '`')
		if end < 0 {
			plain.WriteString(s[i:])
			break
		}
		end += i + 1
		if tickRun(s, end) > 1 {
			plain.WriteByte('`')
			i++
			continue
		}
		flush()
		out.WriteString("<code>")
		out.WriteString(s[i+1 : end])
		out.WriteString("</code>")
		i = end + 1
	}
	flush()
	return out.String()
}

func tickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

func emphasis(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	return italicRe.ReplaceAllString(s, "<em>$1</em>")
}
