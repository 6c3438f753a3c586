// Package store defines the uniform content-store contract every backend
// adapter implements, plus the error taxonomy shared across them.
package store

import (
	"context"
	"errors"

	"github.com/tavukcu/ahmetlimedya/internal/record"
)

// Kind identifies the active backend so callers that legitimately need to
// know (the pagination engine) can pick a strategy.
type Kind string

const (
	KindRelational Kind = "relational"
	KindDocument   Kind = "document"
	KindFlatFile   Kind = "flatfile"
)

// ErrNotFound is the normal negative outcome for GetOne/Update/Delete on an
// absent id. It is recoverable and never wraps a connectivity failure.
var ErrNotFound = errors.New("store: record not found")

// ErrUnavailable marks connectivity or timeout failures talking to the
// backend. The gateway never retries internally; retry is a caller concern.
var ErrUnavailable = errors.New("store: backend unavailable")

// Patch is a partial update. Fields absent from the patch stay untouched;
// a field set to nil is cleared from the stored record (the backend's
// absent-value sentinel).
type Patch = record.Fields

// Store is the backend-agnostic contract the rest of the system programs
// against. Exactly one implementation is selected at process start.
type Store interface {
	Kind() Kind

	// ListAll returns every record in the backend's natural order.
	ListAll(ctx context.Context, collection string) ([]record.Fields, error)
	GetOne(ctx context.Context, collection, id string) (record.Fields, error)
	// Insert stores a new record, assigning an id when the given one is empty.
	Insert(ctx context.Context, collection string, rec record.Fields) (record.Fields, error)
	// Update merges patch onto the stored record and returns the result.
	Update(ctx context.Context, collection, id string, patch Patch) (record.Fields, error)
	Delete(ctx context.Context, collection, id string) error
	// ReplaceAll overwrites the whole collection, preserving the ids carried
	// by recs. Readers during the replace window may observe a transiently
	// empty collection; callers needing isolation must serialize externally.
	ReplaceAll(ctx context.Context, collection string, recs []record.Fields) error
}

// Marker is an opaque reference to a previously returned record, used to
// resume a cursor listing at or strictly after that record.
type Marker struct {
	ID        string
	SortValue any
}

// MarkerFor derives the cursor marker of a record under the given sort field.
func MarkerFor(rec record.Fields, sortField string) Marker {
	id, _ := rec["id"].(string)
	return Marker{ID: id, SortValue: rec[sortField]}
}

// CursorQuery describes one page request against a cursor-capable backend.
type CursorQuery struct {
	SortField  string
	Descending bool
	// Filter holds equality constraints applied before sorting.
	Filter record.Fields
	// Start resumes the listing relative to a marker. Nil starts from the
	// beginning. Inclusive starts at the marker's record, otherwise the
	// listing begins strictly after it.
	Start     *Marker
	Inclusive bool
	Limit     int
}

// CursorLister is the document backend's native paging primitive.
type CursorLister interface {
	ListCursor(ctx context.Context, collection string, q CursorQuery) ([]record.Fields, error)
}

// BatchWriter is implemented by backends with an atomic multi-record write.
// Either every listed id is affected or the call fails with none changed.
type BatchWriter interface {
	UpdateMany(ctx context.Context, collection string, ids []string, patch Patch) error
	DeleteMany(ctx context.Context, collection string, ids []string) error
}

// ApplyPatch merges patch onto a copy of rec following Update semantics.
// Shared by the flat-file adapter and by engines that stage patches in
// memory before a ReplaceAll.
func ApplyPatch(rec record.Fields, patch Patch) record.Fields {
	out := make(record.Fields, len(rec)+len(patch))
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
