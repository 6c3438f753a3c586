// Package page turns "first / next / prev" listing requests into
// backend-appropriate queries: slice paging over the full ordered list for
// the relational and flat-file backends, chained cursor queries for the
// document backend, which only supports "start after the last seen record".
package page

import (
	"context"
	"fmt"
	"sort"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

// Result is one fetched page plus the control state the UI needs.
type Result struct {
	Items   []record.Fields `json:"items"`
	Page    int             `json:"page"`
	HasNext bool            `json:"hasNext"`
	HasPrev bool            `json:"hasPrev"`
}

// Options fixes the shape of a listing view. Changing filter or order on an
// open view resets it, since stored cursor markers are only valid for one
// ordering.
type Options struct {
	Collection string
	PageSize   int
	SortField  string
	Descending bool
	Filter     record.Fields
}

// View is the per-listing-view paging state. It is scoped to one admin
// session and must not be shared across concurrent users.
type View struct {
	st   store.Store
	opts Options

	current int
	// markers holds the cursor marker of the first record of every visited
	// page, indexed by page number. Only used for the document backend;
	// slice-paged backends can reach any page directly.
	markers []store.Marker
	// tail marks the last record of the furthest fetched page, so the next
	// unvisited page can be requested strictly after it.
	tail *store.Marker
}

func NewView(st store.Store, opts Options) *View {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.SortField == "" {
		opts.SortField = "publishedAt"
		opts.Descending = true
	}
	return &View{st: st, opts: opts}
}

// First resets the view and fetches page 0.
func (v *View) First(ctx context.Context) (Result, error) {
	v.reset()
	return v.fetchPage(ctx, 0)
}

func (v *View) Next(ctx context.Context) (Result, error) {
	return v.fetchPage(ctx, v.current+1)
}

// Prev refetches the previous page; on page 0 it refetches page 0.
func (v *View) Prev(ctx context.Context) (Result, error) {
	if v.current == 0 {
		return v.fetchPage(ctx, 0)
	}
	return v.fetchPage(ctx, v.current-1)
}

// SetFilter replaces the filter and resets the view.
func (v *View) SetFilter(filter record.Fields) {
	v.opts.Filter = filter
	v.reset()
}

// SetOrder replaces the ordering and resets the view.
func (v *View) SetOrder(sortField string, descending bool) {
	v.opts.SortField = sortField
	v.opts.Descending = descending
	v.reset()
}

func (v *View) reset() {
	v.current = 0
	v.markers = nil
	v.tail = nil
}

func (v *View) fetchPage(ctx context.Context, n int) (Result, error) {
	if n < 0 {
		n = 0
	}
	if v.st.Kind() == store.KindDocument {
		return v.fetchCursor(ctx, n)
	}
	return v.fetchSlice(ctx, n)
}

// fetchSlice pages by slicing the full ordered listing; any page number is
// reachable without stored markers.
func (v *View) fetchSlice(ctx context.Context, n int) (Result, error) {
	recs, err := v.st.ListAll(ctx, v.opts.Collection)
	if err != nil {
		return Result{}, err
	}

	recs = filterRecords(recs, v.opts.Filter)
	sortRecords(recs, v.opts.SortField, v.opts.Descending)

	start := n * v.opts.PageSize
	end := start + v.opts.PageSize
	var items []record.Fields
	if start < len(recs) {
		if end > len(recs) {
			end = len(recs)
		}
		items = recs[start:end]
	}

	v.current = n
	return Result{
		Items:   items,
		Page:    n,
		HasNext: len(recs) > (n+1)*v.opts.PageSize,
		HasPrev: n > 0,
	}, nil
}

// fetchCursor pages with the document backend's cursor primitive. Visited
// pages are refetched from their stored marker; the next unvisited page is
// requested strictly after the tail marker, asking for one extra record to
// learn whether more pages remain. Jumping further ahead is not supported.
func (v *View) fetchCursor(ctx context.Context, n int) (Result, error) {
	cl, ok := v.st.(store.CursorLister)
	if !ok {
		return Result{}, fmt.Errorf("backend %s has no cursor support", v.st.Kind())
	}

	q := store.CursorQuery{
		SortField:  v.opts.SortField,
		Descending: v.opts.Descending,
		Filter:     v.opts.Filter,
		Limit:      v.opts.PageSize + 1,
	}

	switch {
	case n < len(v.markers):
		m := v.markers[n]
		q.Start = &m
		q.Inclusive = true
	case n == len(v.markers):
		q.Start = v.tail
	default:
		return Result{}, fmt.Errorf("page %d not reachable, only first/next/prev navigation is supported", n)
	}

	recs, err := cl.ListCursor(ctx, v.opts.Collection, q)
	if err != nil {
		return Result{}, err
	}

	hasNext := len(recs) > v.opts.PageSize
	if hasNext {
		recs = recs[:v.opts.PageSize]
	}

	if n == len(v.markers) && len(recs) > 0 {
		v.markers = append(v.markers, store.MarkerFor(recs[0], v.opts.SortField))
		last := store.MarkerFor(recs[len(recs)-1], v.opts.SortField)
		v.tail = &last
	}

	v.current = n
	return Result{
		Items:   recs,
		Page:    n,
		HasNext: hasNext,
		HasPrev: n > 0,
	}, nil
}

func filterRecords(recs []record.Fields, filter record.Fields) []record.Fields {
	if len(filter) == 0 {
		return recs
	}
	out := recs[:0:0]
	for _, rec := range recs {
		match := true
		for k, want := range filter {
			if rec[k] != want {
				match = false
				break
			}
		}
		if match {
			out = append(out, rec)
		}
	}
	return out
}

func sortRecords(recs []record.Fields, field string, descending bool) {
	sort.SliceStable(recs, func(i, j int) bool {
		less := fieldLess(recs[i][field], recs[j][field])
		if descending {
			return fieldLess(recs[j][field], recs[i][field])
		}
		return less
	})
}

// fieldLess orders scalar field values: numbers numerically, everything
// else by string form. Absent values sort first.
func fieldLess(a, b any) bool {
	an, aok := asFloat(a)
	bn, bok := asFloat(b)
	if aok && bok {
		return an < bn
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return as < bs
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
