package helper

import (
	"strings"

	gslug "github.com/gosimple/slug"
)

// SanitizeKey reduces a value to the safe key charset: lowercase
// alphanumerics, dash and underscore.
func SanitizeKey(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	return b.String()
}

// SanitizeKeyList sanitizes every element, dropping ones that vanish.
func SanitizeKeyList(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = SanitizeKey(v)
		if v != "" {
			out = append(out, v)
		}
	}

	return out
}

// SanitizeSlug normalizes one path segment to slug form.
func SanitizeSlug(s string) string {
	return gslug.Make(s)
}

// SanitizePagePath normalizes a hierarchical page path segment by segment.
func SanitizePagePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}

	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = gslug.Make(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return strings.Join(out, "/")
}
