package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stuffmd/application/engine"
	"stuffmd/application/export"
	"stuffmd/application/views"
	"stuffmd/domain/note"
	"stuffmd/infrastructure/config"
	memorystore "stuffmd/infrastructure/persistence/memory"
	"stuffmd/interfaces/http/rest"
)

type stubCategorizer struct {
	result *note.Classification
}

func (s *stubCategorizer) Classify(ctx context.Context, content, instructions string) (*note.Classification, error) {
	if s.result == nil {
		return nil, nil
	}
	clone := *s.result
	return &clone, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T, store *memorystore.NoteStore, cat *stubCategorizer) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Environment:   "test",
		StoreDriver:   config.StoreDriverMemory,
		IPRateLimit:   1000,
		UserRateLimit: 1000,
		EnableCORS:    false,
	}

	eng := engine.New(store, cat, zap.NewNop())
	handler := rest.NewRouter(eng, cfg, zap.NewNop()).Setup()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// Export endpoints respond with raw file bodies, everything else
	// with the standard envelope.
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	} else {
		env.Data = raw
	}
	return resp, env
}

func seededNote(id, content, title string, path []string, tags []string, age time.Duration) *note.Note {
	return &note.Note{
		ID:           id,
		Name:         id + ".txt",
		Content:      content,
		Title:        title,
		Summary:      "A note about " + title,
		CategoryPath: note.CategoryPath(path),
		Tags:         tags,
		Date:         time.Now().Add(-age).UTC(),
	}
}

func TestNoteLifecycle(t *testing.T) {
	store := memorystore.NewNoteStore()
	cat := &stubCategorizer{result: &note.Classification{
		Title:      "Morning Standup Notes",
		Summary:    "Notes from the morning standup.",
		Categories: []string{"Work", "Meetings"},
		Tags:       []string{"standup", "team"},
		Rationale:  "Content describes a recurring team meeting.",
	}}
	srv := newTestServer(t, store, cat)

	// Create
	resp, env := doRequest(t, srv, http.MethodPost, "/api/v1/notes", map[string]string{
		"content": "Discussed sprint goals and blockers with the team.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)

	var created note.Note
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Morning Standup Notes", created.Title)
	assert.Equal(t, note.CategoryPath{"Work", "Meetings"}, created.CategoryPath)
	assert.Equal(t, []string{"standup", "team"}, created.Tags)
	require.NotNil(t, created.AIGenerated)
	assert.Equal(t, "Content describes a recurring team meeting.", created.AIGenerated.Rationale)

	// List
	resp, env = doRequest(t, srv, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []*note.Note
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	// Update title, marking divergence from the AI suggestion
	resp, env = doRequest(t, srv, http.MethodPatch, "/api/v1/notes/"+created.ID, map[string]string{
		"title": "Sprint Planning",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated note.Note
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Sprint Planning", updated.Title)
	assert.True(t, updated.DivergedFromAI())

	// Regenerate restores AI fields
	cat.result = &note.Classification{
		Title:      "Sprint Retrospective",
		Summary:    "Retro notes.",
		Categories: []string{"Work", "Retros"},
		Tags:       []string{"retro"},
		Rationale:  "Updated rationale.",
	}
	resp, env = doRequest(t, srv, http.MethodPost, "/api/v1/notes/"+created.ID+"/regenerate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var regenerated note.Note
	require.NoError(t, json.Unmarshal(env.Data, &regenerated))
	assert.Equal(t, "Sprint Retrospective", regenerated.Title)
	assert.Equal(t, created.Content, regenerated.Content)
	assert.Equal(t, []string{"retro"}, regenerated.Tags)

	// Remove a tag
	resp, _ = doRequest(t, srv, http.MethodDelete, "/api/v1/notes/"+created.ID+"/tags/retro", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doRequest(t, srv, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].Tags)

	// Delete
	resp, _ = doRequest(t, srv, http.MethodDelete, "/api/v1/notes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doRequest(t, srv, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Empty(t, listed)
}

func TestCreateFallsBackWhenCategorizerFails(t *testing.T) {
	store := memorystore.NewNoteStore()
	srv := newTestServer(t, store, &stubCategorizer{result: nil})

	resp, env := doRequest(t, srv, http.MethodPost, "/api/v1/notes", map[string]string{
		"content": "Buy milk and eggs",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created note.Note
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Buy milk and eggs", created.Title)
	assert.Equal(t, note.CategoryPath{"Uncategorized"}, created.CategoryPath)
	assert.Empty(t, created.Tags)
	assert.Nil(t, created.AIGenerated)
}

func TestCreateRejectsBlankContent(t *testing.T) {
	srv := newTestServer(t, memorystore.NewNoteStore(), &stubCategorizer{})

	resp, env := doRequest(t, srv, http.MethodPost, "/api/v1/notes", map[string]string{
		"content": "   ",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	srv := newTestServer(t, memorystore.NewNoteStore(), &stubCategorizer{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/notes", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListFilteredAndGrouped(t *testing.T) {
	store := memorystore.NewNoteStore()
	store.Seed(
		seededNote("n1", "Check https://go.dev/blog for updates", "Go Blog", []string{"Tech"}, []string{"go", "reading"}, time.Hour),
		seededNote("n2", "Plain journal entry", "Journal", []string{"Personal", "Journal"}, []string{"reading"}, 2*time.Hour),
		seededNote("n3", "Another plain one", "Scratch", []string{"Personal"}, nil, 3*time.Hour),
	)
	srv := newTestServer(t, store, &stubCategorizer{})

	// AND semantics across tags
	resp, env := doRequest(t, srv, http.MethodGet, "/api/v1/notes?tags=go,reading", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var filtered []*note.Note
	require.NoError(t, json.Unmarshal(env.Data, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "n1", filtered[0].ID)

	// Grouped view splits link-bearing notes out
	resp, env = doRequest(t, srv, http.MethodGet, "/api/v1/notes?grouped=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var grouped views.GroupedView
	require.NoError(t, json.Unmarshal(env.Data, &grouped))
	require.Len(t, grouped.Linked, 1)
	assert.Equal(t, "Tech", grouped.Linked[0].Key)
	require.Len(t, grouped.Plain, 2)
	assert.Equal(t, "Personal", grouped.Plain[0].Key)
	assert.Equal(t, "Personal/Journal", grouped.Plain[1].Key)

	// Tag index is the sorted union
	resp, env = doRequest(t, srv, http.MethodGet, "/api/v1/tags", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags []string
	require.NoError(t, json.Unmarshal(env.Data, &tags))
	assert.Equal(t, []string{"go", "reading"}, tags)
}

func TestRegenerateOnFreshServer(t *testing.T) {
	store := memorystore.NewNoteStore()
	store.Seed(seededNote("n1", "quarterly budget numbers", "Budget", []string{"Finance"}, nil, time.Hour))
	cat := &stubCategorizer{result: &note.Classification{
		Title:      "Q3 Budget",
		Summary:    "Quarterly budget figures.",
		Categories: []string{"Finance", "Budgets"},
		Tags:       []string{"budget"},
		Rationale:  "Content lists budget numbers.",
	}}
	srv := newTestServer(t, store, cat)

	// no prior listing; the handler must find the note in the store
	resp, env := doRequest(t, srv, http.MethodPost, "/api/v1/notes/n1/regenerate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var regenerated note.Note
	require.NoError(t, json.Unmarshal(env.Data, &regenerated))
	assert.Equal(t, "Q3 Budget", regenerated.Title)
	assert.Equal(t, note.CategoryPath{"Finance", "Budgets"}, regenerated.CategoryPath)
}

func TestBulkDelete(t *testing.T) {
	store := memorystore.NewNoteStore()
	store.Seed(
		seededNote("n1", "one", "One", []string{"Inbox"}, nil, time.Hour),
		seededNote("n2", "two", "Two", []string{"Inbox"}, nil, 2*time.Hour),
		seededNote("n3", "three", "Three", []string{"Inbox"}, nil, 3*time.Hour),
	)
	srv := newTestServer(t, store, &stubCategorizer{})

	resp, _ := doRequest(t, srv, http.MethodPost, "/api/v1/notes/bulk-delete", map[string][]string{
		"note_ids": {"n1", "n3"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doRequest(t, srv, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var remaining []*note.Note
	require.NoError(t, json.Unmarshal(env.Data, &remaining))
	require.Len(t, remaining, 1)
	assert.Equal(t, "n2", remaining[0].ID)
}

func TestCategoryRenameAndDelete(t *testing.T) {
	store := memorystore.NewNoteStore()
	store.Seed(
		seededNote("n1", "one", "One", []string{"Work", "Old"}, nil, time.Hour),
		seededNote("n2", "two", "Two", []string{"Work", "Old"}, nil, 2*time.Hour),
		seededNote("n3", "three", "Three", []string{"Home"}, nil, 3*time.Hour),
	)
	srv := newTestServer(t, store, &stubCategorizer{})

	resp, _ := doRequest(t, srv, http.MethodPost, "/api/v1/categories/rename", map[string]interface{}{
		"old_path": []string{"Work", "Old"},
		"new_path": "Work / Archive",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doRequest(t, srv, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []*note.Note
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	moved := 0
	for _, n := range listed {
		if n.CategoryPath.Display() == "Work / Archive" {
			moved++
		}
	}
	assert.Equal(t, 2, moved)

	resp, _ = doRequest(t, srv, http.MethodPost, "/api/v1/categories/delete", map[string]interface{}{
		"path": []string{"Work", "Archive"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doRequest(t, srv, http.MethodGet, "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "n3", listed[0].ID)
}

func TestExport(t *testing.T) {
	store := memorystore.NewNoteStore()
	store.Seed(
		seededNote("n1", "First body", "First", []string{"Inbox"}, []string{"alpha"}, time.Hour),
		seededNote("n2", "Second body", "Second", []string{"Inbox"}, nil, 2*time.Hour),
	)
	srv := newTestServer(t, store, &stubCategorizer{})

	// Plain text with front matter and delimiter
	resp, env := doRequest(t, srv, http.MethodGet, "/api/v1/export?format=txt", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), export.TextFilename)
	body := string(env.Data)
	assert.Contains(t, body, "tags: [alpha]")
	assert.Contains(t, body, export.Delimiter)
	assert.Contains(t, body, "First body")

	// JSON round-trips
	resp, env = doRequest(t, srv, http.MethodGet, "/api/v1/export?format=json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), export.JSONFilename)
	var exported []*note.Note
	require.NoError(t, json.Unmarshal(env.Data, &exported))
	assert.Len(t, exported, 2)

	// Unknown format rejected
	resp, _ = doRequest(t, srv, http.MethodGet, "/api/v1/export?format=xml", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownNoteReturns404(t *testing.T) {
	srv := newTestServer(t, memorystore.NewNoteStore(), &stubCategorizer{})

	resp, env := doRequest(t, srv, http.MethodDelete, "/api/v1/notes/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
