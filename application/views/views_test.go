package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stuffmd/domain/note"
)

func noteWith(id string, path note.CategoryPath, tags []string, content string, age time.Duration) *note.Note {
	return &note.Note{
		ID:           id,
		Content:      content,
		CategoryPath: path,
		Tags:         tags,
		Date:         time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC).Add(-age),
	}
}

func TestFilterByTags_EmptyFilterReturnsAll(t *testing.T) {
	notes := []*note.Note{
		noteWith("1", note.CategoryPath{"A"}, []string{"go"}, "x", 0),
		noteWith("2", note.CategoryPath{"B"}, nil, "y", time.Hour),
	}

	got := FilterByTags(notes, nil)
	assert.Equal(t, notes, got)

	got = FilterByTags(notes, []string{})
	assert.Equal(t, notes, got)
}

func TestFilterByTags_AndSemantics(t *testing.T) {
	notes := []*note.Note{
		noteWith("1", note.CategoryPath{"A"}, []string{"go", "perf"}, "x", 0),
		noteWith("2", note.CategoryPath{"A"}, []string{"go"}, "y", time.Hour),
		noteWith("3", note.CategoryPath{"A"}, []string{"perf"}, "z", 2*time.Hour),
	}

	got := FilterByTags(notes, []string{"go", "perf"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got = FilterByTags(notes, []string{"go"})
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestFilterByTags_NoMatches(t *testing.T) {
	notes := []*note.Note{
		noteWith("1", note.CategoryPath{"A"}, []string{"go"}, "x", 0),
	}
	assert.Empty(t, FilterByTags(notes, []string{"rust"}))
}

func TestGroupByCategory_KeysSortedNotesOrdered(t *testing.T) {
	notes := []*note.Note{
		noteWith("1", note.CategoryPath{"Work", "Planning"}, nil, "plan A", 0),
		noteWith("2", note.CategoryPath{"Home"}, nil, "groceries", time.Hour),
		noteWith("3", note.CategoryPath{"Work", "Planning"}, nil, "plan B", 2*time.Hour),
		noteWith("4", note.CategoryPath{"Home"}, nil, "chores", 3*time.Hour),
	}

	grouped := GroupByCategory(notes)
	assert.Empty(t, grouped.Linked)
	require.Len(t, grouped.Plain, 2)

	assert.Equal(t, "Home", grouped.Plain[0].Key)
	assert.Equal(t, "Work/Planning", grouped.Plain[1].Key)

	// input (newest-first) order survives within each group
	require.Len(t, grouped.Plain[1].Notes, 2)
	assert.Equal(t, "1", grouped.Plain[1].Notes[0].ID)
	assert.Equal(t, "3", grouped.Plain[1].Notes[1].ID)
	require.Len(t, grouped.Plain[0].Notes, 2)
	assert.Equal(t, "2", grouped.Plain[0].Notes[0].ID)
	assert.Equal(t, "4", grouped.Plain[0].Notes[1].ID)
}

func TestGroupByCategory_LinkCoarseSplit(t *testing.T) {
	notes := []*note.Note{
		noteWith("1", note.CategoryPath{"Reading"}, nil, "see https://go.dev/blog", 0),
		noteWith("2", note.CategoryPath{"Reading"}, nil, "plain thoughts on reading", time.Hour),
		noteWith("3", note.CategoryPath{"Reading"}, nil, "also example.com/article", 2*time.Hour),
	}

	grouped := GroupByCategory(notes)
	require.Len(t, grouped.Linked, 1)
	require.Len(t, grouped.Plain, 1)
	assert.Equal(t, []string{"1", "3"}, ids(grouped.Linked[0].Notes))
	assert.Equal(t, []string{"2"}, ids(grouped.Plain[0].Notes))
}

func TestContainsLink(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"https://example.com", true},
		{"www.example.com/path?q=1", true},
		{"bare domain example.org", true},
		{"no links here at all", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ContainsLink(tc.text), tc.text)
	}
}

func TestTagIndex(t *testing.T) {
	notes := []*note.Note{
		noteWith("1", note.CategoryPath{"A"}, []string{"zeta", "go"}, "x", 0),
		noteWith("2", note.CategoryPath{"B"}, []string{"go", "alpha"}, "y", time.Hour),
		noteWith("3", note.CategoryPath{"C"}, nil, "z", 2*time.Hour),
	}
	assert.Equal(t, []string{"alpha", "go", "zeta"}, TagIndex(notes))
}

func TestTagIndex_Empty(t *testing.T) {
	assert.Empty(t, TagIndex(nil))
}

func ids(notes []*note.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}
