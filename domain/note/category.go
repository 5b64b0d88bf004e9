package note

import "strings"

// CategoryPath is a value object representing a note's hierarchical
// placement as an ordered sequence of labels. A valid path has at least
// one element; the joined form is the category's identity key.
type CategoryPath []string

// DefaultCategoryPath returns the path assigned when no categorization
// is available.
func DefaultCategoryPath() CategoryPath {
	return CategoryPath{"Uncategorized"}
}

// ParseCategoryPath builds a path from a "/"-separated string, trimming
// whitespace around each segment and dropping empty segments. Returns an
// empty path when nothing survives; callers treat that as invalid.
func ParseCategoryPath(s string) CategoryPath {
	parts := strings.Split(s, "/")
	path := make(CategoryPath, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			path = append(path, p)
		}
	}
	return path
}

// NewCategoryPath normalizes a raw label sequence the same way
// ParseCategoryPath normalizes a string.
func NewCategoryPath(labels []string) CategoryPath {
	path := make(CategoryPath, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l != "" {
			path = append(path, l)
		}
	}
	return path
}

// IsValid reports whether the path has at least one element
func (p CategoryPath) IsValid() bool {
	return len(p) > 0
}

// Key returns the joined form used as the grouping identity key
func (p CategoryPath) Key() string {
	return strings.Join(p, "/")
}

// Display returns the human-readable joined form
func (p CategoryPath) Display() string {
	return strings.Join(p, " / ")
}

// Equal checks if two paths are identical element by element
func (p CategoryPath) Equal(other CategoryPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the path
func (p CategoryPath) Clone() CategoryPath {
	if p == nil {
		return nil
	}
	out := make(CategoryPath, len(p))
	copy(out, p)
	return out
}
