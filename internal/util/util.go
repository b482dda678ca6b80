package util

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ComputeBaseHref calculates the relative path to the site root
// so that links work correctly for pages at any depth.
// For example, a page at blog/a.html would get a BaseHref of "../".
func ComputeBaseHref(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return ""
	}
	depth := strings.Count(dir, string(os.PathSeparator)) + 1
	return strings.Repeat("../", depth)
}

var (
	nonSlug = regexp.MustCompile(`[^\w- ]+`)
	dashes  = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a post id: lower case, dashes for spaces,
// everything but letters, digits, '_' and '-' removed.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlug.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
