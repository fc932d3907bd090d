package scanner

import (
	"path"
	"strings"
)

// Match reports whether the slash-separated relative path rel matches
// pattern. Supported forms:
//
//	**/name/**   any path with a segment equal to name
//	dir/**       dir itself and everything below it
//	**/glob      glob against the base name at any depth
//	a/b/*.txt    glob against the whole relative path
//	glob         glob against the base name
//
// Base-name globs are case-insensitive for *x* patterns.
func Match(pattern, rel string) bool {
	rel = strings.TrimPrefix(rel, "./")

	switch {
	case strings.HasPrefix(pattern, "**/") && strings.HasSuffix(pattern, "/**"):
		name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		for _, seg := range strings.Split(rel, "/") {
			if seg == name {
				return true
			}
		}
		return false

	case strings.HasSuffix(pattern, "/**"):
		prefix := strings.TrimSuffix(pattern, "/**")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")

	case strings.HasPrefix(pattern, "**/"):
		return matchBase(strings.TrimPrefix(pattern, "**/"), path.Base(rel))

	case strings.Contains(pattern, "/"):
		ok, err := path.Match(pattern, rel)
		return err == nil && ok
	}

	return matchBase(pattern, path.Base(rel))
}

func matchBase(pattern, base string) bool {
	if len(pattern) > 2 && strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		middle := pattern[1 : len(pattern)-1]
		if !strings.ContainsAny(middle, "*?[") {
			return strings.Contains(strings.ToLower(base), strings.ToLower(middle))
		}
	}
	ok, err := path.Match(pattern, base)
	return err == nil && ok
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if Match(p, rel) {
			return true
		}
	}
	return false
}
