package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tavukcu/ahmetlimedya/internal/record"
)

type colKind int

const (
	colText colKind = iota
	colInt
	colBool
	colJSON
)

// column maps one canonical camelCase field onto its snake_case column.
type column struct {
	name  string
	field string
	kind  colKind
}

type table struct {
	name    string
	columns []column
}

var tables = map[string]table{
	record.CollectionNews: {
		name: "news",
		columns: []column{
			{"slug", "slug", colText},
			{"category", "category", colText},
			{"title", "title", colText},
			{"excerpt", "excerpt", colText},
			{"body_html", "bodyHtml", colText},
			{"author", "author", colText},
			{"cover_image", "coverImage", colText},
			{"published_at", "publishedAt", colText},
			{"reading_time_minutes", "readingTimeMinutes", colInt},
			{"view_count", "viewCount", colInt},
			{"is_published", "isPublished", colBool},
			{"is_breaking", "isBreaking", colBool},
			{"is_featured", "isFeatured", colBool},
			{"breaking_window_hours", "breakingWindowHours", colInt},
			{"breaking_started_at", "breakingStartedAt", colText},
			{"video", "video", colJSON},
		},
	},
	record.CollectionPolls: {
		name: "polls",
		columns: []column{
			{"question", "question", colText},
			{"options", "options", colJSON},
			{"is_active", "isActive", colBool},
			{"total_votes", "totalVotes", colInt},
			{"start_date", "startDate", colText},
			{"end_date", "endDate", colText},
			{"voters_seen", "votersSeen", colJSON},
		},
	},
	record.CollectionAds: {
		name: "ads",
		columns: []column{
			{"slot_name", "slotName", colText},
			{"title", "title", colText},
			{"image", "image", colText},
			{"link_url", "linkUrl", colText},
			{"is_active", "isActive", colBool},
		},
	},
	record.CollectionSubscribers: {
		name: "subscribers",
		columns: []column{
			{"email", "email", colText},
			{"subscribed_at", "subscribedAt", colText},
		},
	},
	record.CollectionDrafts: {
		name: "drafts",
		columns: []column{
			{"article_id", "articleId", colText},
			{"user_id", "userId", colText},
			{"form_data", "formData", colJSON},
			{"saved_at", "savedAt", colText},
			{"expires_at", "expiresAt", colText},
		},
	},
}

func tableFor(collection string) (table, error) {
	tbl, ok := tables[collection]
	if !ok {
		return table{}, fmt.Errorf("unknown collection %q", collection)
	}
	return tbl, nil
}

func (c column) sqlType() string {
	switch c.kind {
	case colInt:
		return "INTEGER"
	case colBool:
		return "BOOLEAN"
	case colJSON:
		return "JSONB"
	default:
		return "TEXT"
	}
}

// encode converts a field value into its SQL argument. A nil field value
// clears the column to NULL.
func (c column) encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if c.kind == colJSON {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c.field, err)
		}
		return data, nil
	}
	return v, nil
}

func (t table) selectList() string {
	list := "id"
	for _, c := range t.columns {
		list += ", " + c.name
	}
	return list
}

// scanRow reads the current row into canonical fields. NULL columns are
// omitted from the map, matching the codec's absent-value convention.
func (t table) scanRow(rows *sqlx.Rows) (record.Fields, error) {
	dests := make([]any, len(t.columns)+1)
	var id string
	dests[0] = &id

	texts := make([]sql.NullString, len(t.columns))
	ints := make([]sql.NullInt64, len(t.columns))
	bools := make([]sql.NullBool, len(t.columns))
	jsons := make([][]byte, len(t.columns))

	for i, c := range t.columns {
		switch c.kind {
		case colInt:
			dests[i+1] = &ints[i]
		case colBool:
			dests[i+1] = &bools[i]
		case colJSON:
			dests[i+1] = &jsons[i]
		default:
			dests[i+1] = &texts[i]
		}
	}

	if err := rows.Scan(dests...); err != nil {
		return nil, wrap(err)
	}

	rec := record.Fields{"id": id}
	for i, c := range t.columns {
		switch c.kind {
		case colInt:
			if ints[i].Valid {
				rec[c.field] = int(ints[i].Int64)
			}
		case colBool:
			if bools[i].Valid {
				rec[c.field] = bools[i].Bool
			}
		case colJSON:
			if len(jsons[i]) > 0 {
				var v any
				if err := json.Unmarshal(jsons[i], &v); err != nil {
					return nil, fmt.Errorf("decode %s: %w", c.field, err)
				}
				if v != nil {
					rec[c.field] = v
				}
			}
		default:
			if texts[i].Valid && texts[i].String != "" {
				rec[c.field] = texts[i].String
			}
		}
	}
	return rec, nil
}
