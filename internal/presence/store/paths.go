package store

import (
	"fmt"
	"strings"
)

// forbiddenKeyChars may not appear in a path segment.
const forbiddenKeyChars = ".#$[]/"

// ValidateKey checks a single path segment.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.ContainsAny(key, forbiddenKeyChars) {
		return fmt.Errorf("%w: segment %q contains one of %q", ErrInvalidPath, key, forbiddenKeyChars)
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: segment %q contains a control character", ErrInvalidPath, key)
		}
	}
	return nil
}

// ValidatePath checks a slash separated path.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, seg := range strings.Split(path, "/") {
		if err := ValidateKey(seg); err != nil {
			return err
		}
	}
	return nil
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Key returns the last segment of path.
func Key(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Within reports whether path equals ancestor or lies below it.
func Within(path, ancestor string) bool {
	return path == ancestor || strings.HasPrefix(path, ancestor+"/")
}

// Related reports whether a change at one path is visible at the other.
func Related(a, b string) bool {
	return Within(a, b) || Within(b, a)
}

// Ancestors returns the strict ancestors of path, nearest last.
func Ancestors(path string) []string {
	var out []string
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			out = append(out, path[:i])
		}
	}
	return out
}

// DescendantRange returns the half-open key range [lo, hi) holding every
// strict descendant of path under byte ordering. '0' is the byte after '/'.
func DescendantRange(path string) (lo, hi string) {
	return path + "/", path + "0"
}
