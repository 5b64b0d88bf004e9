package views

import (
	"regexp"
	"sort"

	"stuffmd/domain/note"
)

// urlPattern recognizes URL-shaped substrings, scheme optional, so that
// "example.com/path" counts as a link the same way "https://example.com"
// does.
var urlPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b(?:[-a-zA-Z0-9()@:%_+.~#?&/=]*)`)

// CategoryGroup is one category bucket in the grouped projection. Notes
// keep the collection's newest-first order.
type CategoryGroup struct {
	Path  note.CategoryPath `json:"path"`
	Key   string            `json:"key"`
	Notes []*note.Note      `json:"notes"`
}

// GroupedView is the two-level grouped projection: notes whose content
// carries a link, then plain-text notes, each bucketed by category path.
type GroupedView struct {
	Linked []CategoryGroup `json:"linked"`
	Plain  []CategoryGroup `json:"plain"`
}

// FilterByTags keeps a note iff its tag set contains every tag in
// activeTags. An empty filter returns the input unchanged, same slice
// order.
func FilterByTags(notes []*note.Note, activeTags []string) []*note.Note {
	if len(activeTags) == 0 {
		return notes
	}
	out := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if hasAllTags(n, activeTags) {
			out = append(out, n)
		}
	}
	return out
}

func hasAllTags(n *note.Note, tags []string) bool {
	for _, t := range tags {
		if !n.HasTag(t) {
			return false
		}
	}
	return true
}

// GroupByCategory splits notes by whether their content contains a
// URL-shaped substring, then buckets each side by joined category path.
// Group keys sort lexicographically; notes inside a group keep the
// order they arrived in.
func GroupByCategory(notes []*note.Note) GroupedView {
	var linked, plain []*note.Note
	for _, n := range notes {
		if ContainsLink(n.Content) {
			linked = append(linked, n)
		} else {
			plain = append(plain, n)
		}
	}
	return GroupedView{
		Linked: bucketByPath(linked),
		Plain:  bucketByPath(plain),
	}
}

func bucketByPath(notes []*note.Note) []CategoryGroup {
	byKey := make(map[string]*CategoryGroup)
	for _, n := range notes {
		key := n.CategoryPath.Key()
		g, ok := byKey[key]
		if !ok {
			g = &CategoryGroup{Path: n.CategoryPath.Clone(), Key: key}
			byKey[key] = g
		}
		g.Notes = append(g.Notes, n)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]CategoryGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out
}

// ContainsLink reports whether the text holds a URL-shaped substring
func ContainsLink(text string) bool {
	return urlPattern.MatchString(text)
}

// TagIndex returns the union of every note's tags, deduplicated and
// sorted, for faceted navigation.
func TagIndex(notes []*note.Note) []string {
	seen := make(map[string]struct{})
	for _, n := range notes {
		for _, t := range n.Tags {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
