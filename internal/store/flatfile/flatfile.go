// Package flatfile implements the content store over one JSON array file
// per collection. Every mutation rewrites the whole backing file; there is
// no partial-write protection, a crash mid-write can corrupt the file.
// That risk is accepted for this deployment profile.
package flatfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

type Store struct {
	dir    string
	logger *log.Logger
	mu     sync.Mutex
}

// New opens a flat-file store rooted at dir, creating it when missing.
func New(dir string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Kind() store.Kind { return store.KindFlatFile }

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// read loads a collection file. A missing file is an empty collection,
// matching the legacy convention of seeding files lazily.
func (s *Store) read(collection string) ([]record.Fields, error) {
	data, err := os.ReadFile(s.path(collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrUnavailable, collection, err)
	}

	var recs []record.Fields
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", collection, err)
	}
	for _, rec := range recs {
		normalizeID(rec)
	}
	return recs, nil
}

func (s *Store) write(collection string, recs []record.Fields) error {
	if recs == nil {
		recs = []record.Fields{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	if err := os.WriteFile(s.path(collection), data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", store.ErrUnavailable, collection, err)
	}
	return nil
}

func (s *Store) ListAll(_ context.Context, collection string) ([]record.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(collection)
}

func (s *Store) GetOne(_ context.Context, collection, id string) (record.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read(collection)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec["id"] == id {
			return rec, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Insert(_ context.Context, collection string, rec record.Fields) (record.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read(collection)
	if err != nil {
		return nil, err
	}

	ins := store.ApplyPatch(rec, nil)
	if id, _ := ins["id"].(string); id == "" {
		ins["id"] = nextID(recs)
	}

	recs = append(recs, ins)
	if err := s.write(collection, recs); err != nil {
		return nil, err
	}
	return ins, nil
}

func (s *Store) Update(_ context.Context, collection, id string, patch store.Patch) (record.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read(collection)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		if rec["id"] != id {
			continue
		}
		merged := store.ApplyPatch(rec, patch)
		merged["id"] = id
		recs[i] = merged
		if err := s.write(collection, recs); err != nil {
			return nil, err
		}
		return merged, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read(collection)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		if rec["id"] == id {
			recs = append(recs[:i], recs[i+1:]...)
			return s.write(collection, recs)
		}
	}
	return store.ErrNotFound
}

func (s *Store) ReplaceAll(_ context.Context, collection string, recs []record.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(collection, recs)
}

// nextID assigns max numeric id + 1, keeping the legacy integer id scheme
// the collection files already carry.
func nextID(recs []record.Fields) string {
	max := int64(0)
	for _, rec := range recs {
		id, _ := rec["id"].(string)
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// normalizeID coerces legacy numeric ids to the canonical string form.
func normalizeID(rec record.Fields) {
	switch id := rec["id"].(type) {
	case float64:
		rec["id"] = strconv.FormatInt(int64(id), 10)
	case int:
		rec["id"] = strconv.Itoa(id)
	case int64:
		rec["id"] = strconv.FormatInt(id, 10)
	}
}
