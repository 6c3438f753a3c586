// Package bulk tracks a selection of record ids and applies one admin
// action to all of them as a single logical operation. The outcome is
// all-or-nothing: either every selected record reflects the action or none
// do, regardless of backend.
package bulk

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

type Action string

const (
	ActionPublish       Action = "publish"
	ActionUnpublish     Action = "unpublish"
	ActionDelete        Action = "delete"
	ActionSetBreaking   Action = "setBreaking"
	ActionUnsetBreaking Action = "unsetBreaking"
	ActionSetFeatured   Action = "setFeatured"
	ActionUnsetFeatured Action = "unsetFeatured"
)

// ValidationError reports a precondition failure. Nothing was attempted
// against the backend and the selection is untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "bulk: " + e.Reason }

// FailedError reports a bulk action that did not complete. The contract
// stays atomic: zero records changed, and the selection is preserved for a
// retry. Err carries the underlying store failure.
type FailedError struct {
	Action Action
	Err    error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("bulk %s failed, no records changed: %v", e.Action, e.Err)
}

func (e *FailedError) Unwrap() error { return e.Err }

// Outcome reports a completed action so the caller can refresh its listing.
type Outcome struct {
	Action      Action   `json:"action"`
	AffectedIDs []string `json:"affectedIds"`
}

// Selection is the per-session selection set plus the action runner. It is
// scoped to one admin session; the mutex only prevents a double-submit from
// that session, not cross-session sharing.
type Selection struct {
	st         store.Store
	collection string
	now        func() time.Time

	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSelection(st store.Store, collection string) *Selection {
	return &Selection{
		st:         st,
		collection: collection,
		now:        time.Now,
		ids:        make(map[string]struct{}),
	}
}

func (s *Selection) Select(id string) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

func (s *Selection) Deselect(id string) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

func (s *Selection) Toggle(id string) {
	s.mu.Lock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
	s.mu.Unlock()
}

func (s *Selection) SelectAll(ids []string) {
	s.mu.Lock()
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.mu.Unlock()
}

func (s *Selection) DeselectAll() {
	s.mu.Lock()
	s.ids = make(map[string]struct{})
	s.mu.Unlock()
}

func (s *Selection) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Selection) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIDs()
}

func (s *Selection) sortedIDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PerformAction applies action to every selected record. confirmDelete is
// the caller-supplied acknowledgment the delete action requires; other
// actions ignore it. On success the selection is cleared; on failure it is
// preserved so the user can retry.
func (s *Selection) PerformAction(ctx context.Context, action Action, confirmDelete bool) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) == 0 {
		return Outcome{}, &ValidationError{Reason: "nothing selected"}
	}
	if action == ActionDelete && !confirmDelete {
		return Outcome{}, &ValidationError{Reason: "delete requires confirmation"}
	}

	patch, err := s.patchFor(action)
	if err != nil {
		return Outcome{}, err
	}

	ids := s.sortedIDs()
	if bw, ok := s.st.(store.BatchWriter); ok {
		err = s.performBatch(ctx, bw, action, ids, patch)
	} else {
		err = s.performStaged(ctx, action, ids, patch)
	}
	if err != nil {
		return Outcome{}, &FailedError{Action: action, Err: err}
	}

	s.ids = make(map[string]struct{})
	return Outcome{Action: action, AffectedIDs: ids}, nil
}

// patchFor maps an action to the partial update it applies. Delete carries
// no patch.
func (s *Selection) patchFor(action Action) (store.Patch, error) {
	now := s.now().UTC().Format(time.RFC3339)
	switch action {
	case ActionPublish:
		return store.Patch{"isPublished": true, "publishedAt": now}, nil
	case ActionUnpublish:
		return store.Patch{"isPublished": false, "publishedAt": nil}, nil
	case ActionSetBreaking:
		return store.Patch{"isBreaking": true, "breakingStartedAt": now}, nil
	case ActionUnsetBreaking:
		return store.Patch{"isBreaking": false, "breakingStartedAt": nil}, nil
	case ActionSetFeatured:
		return store.Patch{"isFeatured": true}, nil
	case ActionUnsetFeatured:
		return store.Patch{"isFeatured": false}, nil
	case ActionDelete:
		return nil, nil
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown action %q", action)}
	}
}

// performBatch issues one batched write covering every id. If the batch
// primitive fails the whole action failed with zero records changed.
func (s *Selection) performBatch(ctx context.Context, bw store.BatchWriter, action Action, ids []string, patch store.Patch) error {
	if action == ActionDelete {
		return bw.DeleteMany(ctx, s.collection, ids)
	}
	return bw.UpdateMany(ctx, s.collection, ids, patch)
}

// performStaged serves backends without a batch primitive: the patch is
// applied to every selected record against the in-memory full list, and a
// single ReplaceAll writes the result. Any error before the ReplaceAll
// aborts with the backend untouched.
func (s *Selection) performStaged(ctx context.Context, action Action, ids []string, patch store.Patch) error {
	recs, err := s.st.ListAll(ctx, s.collection)
	if err != nil {
		return err
	}

	byID := make(map[string]int, len(recs))
	for i, rec := range recs {
		if id, ok := rec["id"].(string); ok {
			byID[id] = i
		}
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
	}

	if action == ActionDelete {
		kept := make([]record.Fields, 0, len(recs))
		for _, rec := range recs {
			id, _ := rec["id"].(string)
			if s.contains(ids, id) {
				continue
			}
			kept = append(kept, rec)
		}
		return s.st.ReplaceAll(ctx, s.collection, kept)
	}

	for _, id := range ids {
		i := byID[id]
		recs[i] = store.ApplyPatch(recs[i], patch)
	}
	return s.st.ReplaceAll(ctx, s.collection, recs)
}

func (s *Selection) contains(ids []string, id string) bool {
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id
}
