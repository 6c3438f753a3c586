// Package mongodb implements the content store over a MongoDB database,
// one collection per entity type with documents keyed by the record id.
// It is the only backend with a native cursor primitive and an atomic
// multi-record write, which the pagination and bulk engines exploit.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

type Store struct {
	db     *mongo.Database
	logger *log.Logger
}

// Connect dials the document store and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return client, nil
}

// New wraps db as a content store and ensures the listing indexes exist.
// Index creation is idempotent, safe on every process start.
func New(db *mongo.Database, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{db: db, logger: logger}
	if err := s.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "publishedAt", Value: -1}}},
		{Keys: bson.D{{Key: "viewCount", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	_, err := s.db.Collection(record.CollectionNews).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		s.logger.Printf("failed to create indexes: %v", err)
	}
	return err
}

func (s *Store) Kind() store.Kind { return store.KindDocument }

func (s *Store) col(collection string) *mongo.Collection {
	return s.db.Collection(collection)
}

func (s *Store) ListAll(ctx context.Context, collection string) ([]record.Fields, error) {
	cur, err := s.col(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, wrap(err)
	}
	defer cur.Close(ctx)
	return decodeAll(ctx, cur)
}

func (s *Store) GetOne(ctx context.Context, collection, id string) (record.Fields, error) {
	var doc bson.M
	err := s.col(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrap(err)
	}
	return fromDoc(doc), nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec record.Fields) (record.Fields, error) {
	ins := store.ApplyPatch(rec, nil)
	id, _ := ins["id"].(string)
	if id == "" {
		id = primitive.NewObjectID().Hex()
		ins["id"] = id
	}

	doc := toDoc(ins)
	doc["_id"] = id
	if _, err := s.col(collection).InsertOne(ctx, doc); err != nil {
		return nil, wrap(err)
	}
	return ins, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Patch) (record.Fields, error) {
	set := bson.M{}
	unset := bson.M{}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		if v == nil {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return s.GetOne(ctx, collection, id)
	}

	var doc bson.M
	err := s.col(collection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrap(err)
	}
	return fromDoc(doc), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.col(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ReplaceAll(ctx context.Context, collection string, recs []record.Fields) error {
	if _, err := s.col(collection).DeleteMany(ctx, bson.M{}); err != nil {
		return wrap(err)
	}
	if len(recs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(recs))
	for _, rec := range recs {
		doc := toDoc(rec)
		doc["_id"] = rec["id"]
		docs = append(docs, doc)
	}
	if _, err := s.col(collection).InsertMany(ctx, docs); err != nil {
		return wrap(err)
	}
	return nil
}

// ListCursor runs one page of a cursor listing: up to q.Limit records under
// (q.SortField, direction), resuming at or strictly after q.Start. Records
// are tie-broken by id so the ordering is total and the cursor stable.
func (s *Store) ListCursor(ctx context.Context, collection string, q store.CursorQuery) ([]record.Fields, error) {
	filter := bson.M{}
	for k, v := range q.Filter {
		if k == "id" {
			k = "_id"
		}
		filter[k] = v
	}

	dir := 1
	if q.Descending {
		dir = -1
	}

	if q.Start != nil {
		cmp, cmpEq := "$gt", "$gte"
		if q.Descending {
			cmp, cmpEq = "$lt", "$lte"
		}
		idCmp := cmp
		if q.Inclusive {
			idCmp = cmpEq
		}
		filter["$or"] = bson.A{
			bson.M{q.SortField: bson.M{cmp: q.Start.SortValue}},
			bson.M{q.SortField: q.Start.SortValue, "_id": bson.M{idCmp: q.Start.ID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: q.SortField, Value: dir}, {Key: "_id", Value: dir}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.col(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap(err)
	}
	defer cur.Close(ctx)
	return decodeAll(ctx, cur)
}

// UpdateMany applies one patch to every listed id in a single batched write.
func (s *Store) UpdateMany(ctx context.Context, collection string, ids []string, patch store.Patch) error {
	set := bson.M{}
	unset := bson.M{}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		if v == nil {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}
	_, err := s.col(collection).UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update)
	return wrap(err)
}

// DeleteMany removes every listed id in a single batched write.
func (s *Store) DeleteMany(ctx context.Context, collection string, ids []string) error {
	_, err := s.col(collection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return wrap(err)
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]record.Fields, error) {
	var recs []record.Fields
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		recs = append(recs, fromDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, wrap(err)
	}
	return recs, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

// toDoc rebuilds a field map as a BSON document.
func toDoc(rec record.Fields) bson.M {
	doc := bson.M{}
	for k, v := range rec {
		doc[k] = v
	}
	return doc
}

// fromDoc converts a decoded BSON document back into canonical fields,
// flattening the driver's primitive container types so the codec only ever
// sees plain maps, slices and scalars.
func fromDoc(doc bson.M) record.Fields {
	rec := record.Fields{}
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		rec[k] = fromBSON(v)
	}
	return rec
}

func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = fromBSON(e)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case bson.A:
		s := make([]any, 0, len(t))
		for _, e := range t {
			s = append(s, fromBSON(e))
		}
		return s
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	default:
		return v
	}
}
