package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stuffmd/application/ports"
	"stuffmd/domain/note"
	pkgerrors "stuffmd/pkg/errors"
)

// Engine owns the authoritative in-memory note collection for the
// session and mediates every mutation through the store gateway and the
// categorizer. After any mutating call it refetches the full collection;
// it never trusts its own previous state over a fresh read.
//
// The mutex guards the collection data structure only. Concurrent
// mutations are not serialized: the refresh-after-write protocol means
// the last refresh to complete defines the visible state, which is the
// accepted outcome under the single-actor assumption.
type Engine struct {
	store       ports.NoteStore
	categorizer ports.Categorizer
	logger      *zap.Logger

	mu         sync.RWMutex
	collection *note.Collection

	now func() time.Time
}

// New creates a lifecycle engine with an empty collection
func New(store ports.NoteStore, categorizer ports.Categorizer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:       store,
		categorizer: categorizer,
		logger:      logger,
		collection:  note.NewCollection(),
		now:         time.Now,
	}
}

// Refresh replaces the entire collection with a fresh store read
func (e *Engine) Refresh(ctx context.Context, token string) error {
	if err := requireToken(token); err != nil {
		return err
	}

	notes, err := e.store.FetchAll(ctx, token)
	if err != nil {
		return pkgerrors.NewStoreError("fetch-all", err)
	}

	e.mu.Lock()
	e.collection.Replace(notes)
	e.mu.Unlock()

	e.logger.Debug("collection refreshed", zap.Int("noteCount", len(notes)))
	return nil
}

// Notes returns a snapshot of the collection, newest first
func (e *Engine) Notes() []*note.Note {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.collection.All()
}

// Get returns a snapshot of one note, or nil if it is not in the
// collection
func (e *Engine) Get(id string) *note.Note {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if n := e.collection.Get(id); n != nil {
		return n.Clone()
	}
	return nil
}

// Create classifies raw content, composes a full note record and
// persists it. Classification failure is not an error here: the note is
// composed from fallbacks instead. The created record is returned before
// the refresh completes so the caller can react immediately.
func (e *Engine) Create(ctx context.Context, token, content, instructions string) (*note.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if err := requireToken(token); err != nil {
		return nil, err
	}

	result, err := e.categorizer.Classify(ctx, content, instructions)
	if err != nil {
		return nil, err
	}
	if result == nil {
		e.logger.Info("categorizer returned no result, composing from fallbacks")
	}

	composed, err := note.Compose(content, result, e.now())
	if err != nil {
		return nil, err
	}

	created, err := e.store.Create(ctx, token, composed)
	if err != nil {
		return nil, pkgerrors.NewStoreError("create", err)
	}

	if err := e.Refresh(ctx, token); err != nil {
		e.logger.Warn("refresh after create failed", zap.Error(err))
	}

	e.logger.Info("note created",
		zap.String("noteID", created.ID),
		zap.String("category", created.CategoryPath.Key()),
		zap.Bool("aiGenerated", created.AIGenerated != nil),
	)
	return created, nil
}

// Update shallow-merges the patch into the stored record and refreshes
func (e *Engine) Update(ctx context.Context, token, id string, patch note.Patch) error {
	if err := requireToken(token); err != nil {
		return err
	}

	if _, err := e.store.Update(ctx, token, id, patch); err != nil {
		if pkgerrors.IsNotFound(err) {
			return err
		}
		return pkgerrors.NewStoreError("update", err)
	}

	return e.Refresh(ctx, token)
}

// Regenerate re-runs classification on the note's original content and
// replaces the AI-derived fields in one update. If the categorizer
// returns no result the note is left byte-for-byte unchanged and a
// regeneration error is raised.
func (e *Engine) Regenerate(ctx context.Context, token string, n *note.Note, instructions string) error {
	if err := requireToken(token); err != nil {
		return err
	}

	result, err := e.categorizer.Classify(ctx, n.Content, instructions)
	if err != nil {
		return err
	}
	if result == nil {
		return pkgerrors.NewRegenerationError(n.ID)
	}

	return e.Update(ctx, token, n.ID, note.RegenerationPatch(result))
}

// DeleteTag removes one tag value from a note's tag set, resolving the
// note against a fresh fetch. A tag that is not present is a no-op
// success; no write is issued.
func (e *Engine) DeleteTag(ctx context.Context, token, id, tag string) error {
	if err := e.Refresh(ctx, token); err != nil {
		return err
	}

	e.mu.RLock()
	n := e.collection.Get(id)
	e.mu.RUnlock()
	if n == nil {
		return pkgerrors.NewNotFoundError("note")
	}
	if !n.HasTag(tag) {
		return nil
	}

	reduced := n.WithoutTag(tag)
	return e.Update(ctx, token, id, note.Patch{Tags: &reduced})
}

// Delete removes one note from the store and refreshes
func (e *Engine) Delete(ctx context.Context, token, id string) error {
	if err := requireToken(token); err != nil {
		return err
	}

	if err := e.store.Delete(ctx, token, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return err
		}
		return pkgerrors.NewStoreError("delete", err)
	}

	return e.Refresh(ctx, token)
}

// DeleteMany deletes each id concurrently, best effort: a failure on one
// id does not stop the others, and all failures surface as one aggregate
// error. The collection is refreshed regardless so the visible state
// converges on whatever the store now holds.
func (e *Engine) DeleteMany(ctx context.Context, token string, ids []string) error {
	if err := requireToken(token); err != nil {
		return err
	}

	var (
		wg      sync.WaitGroup
		errMu   sync.Mutex
		deleted int
		errs    error
	)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := e.store.Delete(ctx, token, id); err != nil {
				errMu.Lock()
				errs = multierr.Append(errs, pkgerrors.Wrapf(err, "delete note %s", id))
				errMu.Unlock()
				return
			}
			errMu.Lock()
			deleted++
			errMu.Unlock()
		}(id)
	}
	wg.Wait()

	e.logger.Info("bulk delete completed",
		zap.Int("requested", len(ids)),
		zap.Int("deleted", deleted),
		zap.Int("failed", len(multierr.Errors(errs))),
	)

	if err := e.Refresh(ctx, token); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// RenameCategoryPath updates every note currently grouped under oldPath
// to the normalized newPath. Tags and content are untouched.
func (e *Engine) RenameCategoryPath(ctx context.Context, token string, oldPath, newPath note.CategoryPath) error {
	if err := requireToken(token); err != nil {
		return err
	}

	normalized := note.NewCategoryPath(newPath)
	if !normalized.IsValid() {
		return pkgerrors.NewValidationError("category path cannot be empty")
	}

	// The rename scope is resolved against store reality, not whatever
	// an earlier request happened to load.
	if err := e.Refresh(ctx, token); err != nil {
		return err
	}

	e.mu.RLock()
	ids := e.collection.IDsByCategory(oldPath)
	e.mu.RUnlock()

	for _, id := range ids {
		if _, err := e.store.Update(ctx, token, id, note.Patch{CategoryPath: normalized}); err != nil {
			if refreshErr := e.Refresh(ctx, token); refreshErr != nil {
				e.logger.Warn("refresh after failed rename", zap.Error(refreshErr))
			}
			return pkgerrors.NewStoreError("rename-category", err)
		}
	}

	e.logger.Info("category renamed",
		zap.String("from", oldPath.Key()),
		zap.String("to", normalized.Key()),
		zap.Int("notes", len(ids)),
	)
	return e.Refresh(ctx, token)
}

// DeleteCategory removes every note whose category path currently
// equals the given path. This is a set operation over the current
// collection, not a cascading relation.
func (e *Engine) DeleteCategory(ctx context.Context, token string, path note.CategoryPath) error {
	if err := e.Refresh(ctx, token); err != nil {
		return err
	}

	e.mu.RLock()
	ids := e.collection.IDsByCategory(path)
	e.mu.RUnlock()

	if len(ids) == 0 {
		return nil
	}
	return e.DeleteMany(ctx, token, ids)
}

func requireToken(token string) error {
	if token == "" {
		return pkgerrors.NewAuthRequiredError("")
	}
	return nil
}
