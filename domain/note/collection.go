package note

import "sort"

// Collection is the id-keyed aggregate holding the session's
// authoritative note set. It is replaced wholesale on every refresh;
// it never reconciles increments against previous state.
type Collection struct {
	byID  map[string]*Note
	order []string // ids, newest first
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{byID: make(map[string]*Note)}
}

// Replace swaps the entire contents for a fresh store read. Input order
// is normalized to descending date so a misbehaving backend cannot
// disturb display order.
func (c *Collection) Replace(notes []*Note) {
	c.byID = make(map[string]*Note, len(notes))
	c.order = make([]string, 0, len(notes))

	sorted := append([]*Note(nil), notes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	for _, n := range sorted {
		if _, dup := c.byID[n.ID]; dup {
			continue
		}
		c.byID[n.ID] = n
		c.order = append(c.order, n.ID)
	}
}

// Get returns the note with the given id, or nil
func (c *Collection) Get(id string) *Note {
	return c.byID[id]
}

// Len returns the number of notes held
func (c *Collection) Len() int {
	return len(c.order)
}

// All returns an independent snapshot of the notes, newest first
func (c *Collection) All() []*Note {
	out := make([]*Note, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].Clone())
	}
	return out
}

// IDsByCategory returns the ids of every note whose category path
// currently equals the given path, newest first
func (c *Collection) IDsByCategory(path CategoryPath) []string {
	ids := make([]string, 0)
	for _, id := range c.order {
		if c.byID[id].CategoryPath.Equal(path) {
			ids = append(ids, id)
		}
	}
	return ids
}
