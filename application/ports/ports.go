package ports

import (
	"context"

	"stuffmd/domain/note"
)

// NoteStore defines the interface for the remote note store gateway.
// This is a port in hexagonal architecture - the engine doesn't know
// about the implementation. Every call carries the caller's auth token;
// implementations never cache across tokens.
type NoteStore interface {
	// FetchAll retrieves every note, sorted newest first by date
	FetchAll(ctx context.Context, token string) ([]*note.Note, error)

	// Create persists a new note and returns it with its store-assigned id
	Create(ctx context.Context, token string, n *note.Note) (*note.Note, error)

	// Update shallow-merges the patch into the stored record.
	// Fails with a NotFound error if the id is absent.
	Update(ctx context.Context, token, id string, patch note.Patch) (*note.Note, error)

	// Delete removes a note. Fails with a NotFound error if the id is absent.
	Delete(ctx context.Context, token, id string) error
}

// Categorizer defines the interface for the AI classification service.
// A nil Classification with a nil error is the expected failure signal:
// the engine falls back to defaults on create and refuses to degrade an
// existing note on regenerate. A non-nil error is reserved for
// cancellation and propagates as-is.
type Categorizer interface {
	Classify(ctx context.Context, content, instructions string) (*note.Classification, error)
}
