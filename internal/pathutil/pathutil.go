// Package pathutil provides the pure path/identity helpers the rename and
// move cascades are built on. All functions are side-effect free and cannot
// fail: identity in the vault IS the path, so everything here is string math.
package pathutil

import "strings"

// Normalize converts backslashes to forward slashes and strips any trailing
// slash. The empty string (vault root) normalizes to itself.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.TrimSuffix(p, "/")
}

// IsDescendantOrSelf reports whether candidate equals ancestor or lives
// anywhere below it. Used to block folder-into-itself moves.
func IsDescendantOrSelf(candidate, ancestor string) bool {
	candidate = Normalize(candidate)
	ancestor = Normalize(ancestor)
	return candidate == ancestor || strings.HasPrefix(candidate, ancestor+"/")
}

// RewritePrefix replaces a leading path prefix of value with newPrefix. The
// match happens only at a path-segment boundary: renaming "docs" must never
// touch a sibling named "docs-old". Values outside the prefix are returned
// unchanged.
func RewritePrefix(value, oldPrefix, newPrefix string) string {
	if value == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(value, oldPrefix+"/") {
		return newPrefix + value[len(oldPrefix):]
	}
	return value
}

// HasPrefix reports whether value equals prefix or starts with it at a
// segment boundary. This is the affected-set test for a folder cascade.
func HasPrefix(value, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}

// Join builds an identity from a parent folder ID and a name. An empty
// parent means vault root.
func Join(parent, name string) string {
	parent = Normalize(parent)
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Parent returns the parent folder ID of an identity, "" for root-level ids.
func Parent(id string) string {
	id = Normalize(id)
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return ""
	}
	return id[:i]
}

// Base returns the final segment of an identity.
func Base(id string) string {
	id = Normalize(id)
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return id
	}
	return id[i+1:]
}

// SanitizeTitle strips characters that are illegal in a path segment so a
// user-entered title can become an identity segment. Separator characters
// are removed rather than replaced: a title must never introduce depth.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			continue
		}
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
