package markdown

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/adrg/frontmatter"
)

// looseFormat is the "---" delimited key: value block used by posts. The
// block is not YAML: values are taken verbatim up to the end of the line.
var looseFormat = frontmatter.NewFormat("---", "---", unmarshalLoose)

// ParseFrontMatter splits raw into its frontmatter pairs and the body. found
// is false when raw has no frontmatter block; body is then all of raw. The
// opening delimiter must be the very first line.
func ParseFrontMatter(raw []byte) (meta map[string]string, body []byte, found bool) {
	if !bytes.HasPrefix(raw, []byte("---\n")) && !bytes.HasPrefix(raw, []byte("---\r\n")) {
		return map[string]string{}, raw, false
	}
	meta = map[string]string{}
	rest, err := frontmatter.MustParse(bytes.NewReader(raw), &meta, looseFormat)
	if err != nil {
		return map[string]string{}, raw, false
	}
	return meta, rest, true
}

func unmarshalLoose(data []byte, v interface{}) error {
	out, ok := v.(*map[string]string)
	if !ok {
		return fmt.Errorf("frontmatter: unsupported target %T", v)
	}
	if *out == nil {
		*out = map[string]string{}
	}
	for key, value := range parsePairs(data) {
		(*out)[key] = value
	}
	return nil
}

// parsePairs reads "key: value" lines. Keys must be bare words; a single
// layer of double quotes around the value is dropped.
func parsePairs(data []byte) map[string]string {
	pairs := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || !isBareWord(key) {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.TrimPrefix(value, `"`)
		value = strings.TrimSuffix(value, `"`)
		pairs[key] = value
	}
	return pairs
}

func isBareWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
