// Package memory provides an in-process NoteStore used for development
// and tests. It mirrors the remote store contract: ids assigned on
// create, newest-first fetch order, shallow-merge updates.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"stuffmd/domain/note"
	pkgerrors "stuffmd/pkg/errors"
)

// NoteStore is a concurrency-safe in-memory note store
type NoteStore struct {
	mu    sync.RWMutex
	notes map[string]*note.Note
}

// NewNoteStore creates an empty in-memory store
func NewNoteStore() *NoteStore {
	return &NoteStore{notes: make(map[string]*note.Note)}
}

// FetchAll returns every note, newest first
func (s *NoteStore) FetchAll(ctx context.Context, token string) ([]*note.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*note.Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Create stores a new note under a fresh id
func (s *NoteStore) Create(ctx context.Context, token string, n *note.Note) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := n.Clone()
	created.ID = uuid.New().String()
	s.notes[created.ID] = created
	return created.Clone(), nil
}

// Update merges the patch into an existing note
func (s *NoteStore) Update(ctx context.Context, token, id string, patch note.Patch) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("note")
	}
	updated := existing.Clone()
	patch.Apply(updated)
	s.notes[id] = updated
	return updated.Clone(), nil
}

// Delete removes a note by id
func (s *NoteStore) Delete(ctx context.Context, token, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return pkgerrors.NewNotFoundError("note")
	}
	delete(s.notes, id)
	return nil
}

// Seed inserts notes with their existing ids, for tests
func (s *NoteStore) Seed(notes ...*note.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range notes {
		c := n.Clone()
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		s.notes[c.ID] = c
	}
}
