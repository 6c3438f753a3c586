// Package postgres implements the content store over PostgreSQL, one table
// per collection with snake_case columns matching the canonical field names
// and JSONB columns for nested structures.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

type Store struct {
	db     *sqlx.DB
	logger *log.Logger
}

// Connect opens and pings the database.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return db, nil
}

// New wraps db as a content store and creates any missing tables. Schema
// creation is idempotent, safe on every process start.
func New(db *sqlx.DB, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{db: db, logger: logger}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Kind() store.Kind { return store.KindRelational }

func (s *Store) initSchema(ctx context.Context) error {
	for collection, tbl := range tables {
		cols := make([]string, 0, len(tbl.columns)+2)
		cols = append(cols, "id TEXT PRIMARY KEY", "seq BIGSERIAL")
		for _, c := range tbl.columns {
			cols = append(cols, c.name+" "+c.sqlType())
		}
		ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tbl.name, strings.Join(cols, ", "))
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table for %s: %w", collection, err)
		}
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context, collection string) ([]record.Fields, error) {
	tbl, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", tbl.selectList(), tbl.name)
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var recs []record.Fields
	for rows.Next() {
		rec, err := tbl.scanRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, wrap(rows.Err())
}

func (s *Store) GetOne(ctx context.Context, collection, id string) (record.Fields, error) {
	tbl, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", tbl.selectList(), tbl.name)
	rows, err := s.db.QueryxContext(ctx, query, id)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, wrap(err)
		}
		return nil, store.ErrNotFound
	}
	return tbl.scanRow(rows)
}

func (s *Store) Insert(ctx context.Context, collection string, rec record.Fields) (record.Fields, error) {
	tbl, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	ins := store.ApplyPatch(rec, nil)
	id, _ := ins["id"].(string)
	if id == "" {
		id, err = s.nextID(ctx, tbl)
		if err != nil {
			return nil, err
		}
		ins["id"] = id
	}

	names := []string{"id"}
	placeholders := []string{"$1"}
	args := []any{id}
	for _, c := range tbl.columns {
		v, ok := ins[c.field]
		if !ok {
			continue
		}
		arg, err := c.encode(v)
		if err != nil {
			return nil, err
		}
		names = append(names, c.name)
		args = append(args, arg)
		placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl.name, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, wrap(err)
	}
	return ins, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Patch) (record.Fields, error) {
	tbl, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	for _, c := range tbl.columns {
		v, ok := patch[c.field]
		if !ok {
			continue
		}
		arg, err := c.encode(v)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	if len(sets) == 0 {
		return s.GetOne(ctx, collection, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		tbl.name, strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetOne(ctx, collection, id)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tbl, err := tableFor(collection)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", tbl.name), id)
	if err != nil {
		return wrap(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ReplaceAll clears the table and reinserts recs row by row inside one
// transaction, preserving the incoming ids and their order.
func (s *Store) ReplaceAll(ctx context.Context, collection string, recs []record.Fields) error {
	tbl, err := tableFor(collection)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tbl.name); err != nil {
		return wrap(err)
	}
	for _, rec := range recs {
		names := []string{"id"}
		placeholders := []string{"$1"}
		args := []any{rec["id"]}
		for _, c := range tbl.columns {
			v, ok := rec[c.field]
			if !ok {
				continue
			}
			arg, err := c.encode(v)
			if err != nil {
				return err
			}
			names = append(names, c.name)
			args = append(args, arg)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			tbl.name, strings.Join(names, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrap(err)
		}
	}
	return wrap(tx.Commit())
}

// UpdateMany applies one patch to every listed id as a single statement,
// so either every row changes or none do.
func (s *Store) UpdateMany(ctx context.Context, collection string, ids []string, patch store.Patch) error {
	tbl, err := tableFor(collection)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	for _, c := range tbl.columns {
		v, ok := patch[c.field]
		if !ok {
			continue
		}
		arg, err := c.encode(v)
		if err != nil {
			return err
		}
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, pq.Array(ids))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ANY($%d)",
		tbl.name, strings.Join(sets, ", "), len(args))
	_, err = s.db.ExecContext(ctx, query, args...)
	return wrap(err)
}

// DeleteMany removes every listed id as a single statement.
func (s *Store) DeleteMany(ctx context.Context, collection string, ids []string) error {
	tbl, err := tableFor(collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", tbl.name)
	_, err = s.db.ExecContext(ctx, query, pq.Array(ids))
	return wrap(err)
}

// nextID keeps the legacy integer id scheme: max numeric id + 1.
func (s *Store) nextID(ctx context.Context, tbl table) (string, error) {
	query := fmt.Sprintf(
		`SELECT COALESCE(MAX(id::bigint), 0) + 1 FROM %s WHERE id ~ '^[0-9]+$'`, tbl.name)
	var next int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return "", wrap(err)
	}
	return strconv.FormatInt(next, 10), nil
}

func wrap(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}
