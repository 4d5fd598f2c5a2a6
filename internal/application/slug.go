package application

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var slugStrip = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Slug builds "YYYY_MM_DD/category/title-slug" from the creation time.
func Slug(title, category string, t time.Time) string {
	s := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	s = slugStrip.ReplaceAllString(s, "")
	return t.UTC().Format("2006_01_02") + "/" + category + "/" + s
}

// BaseName returns the part of the file's base name before the first dot.
func BaseName(filename string) (string, error) {
	base := filepath.Base(filepath.ToSlash(filename))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "/" {
		return "", ErrInvalidFilename
	}
	return base, nil
}
