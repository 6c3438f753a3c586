//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

// Runs against a live instance, e.g. MONGO_TEST_URI=mongodb://localhost:27017.
type MongoIntegrationSuite struct {
	suite.Suite
	ctx context.Context
	st  *Store

	cleanup func()
}

func TestMongoIntegrationSuite(t *testing.T) {
	if os.Getenv("MONGO_TEST_URI") == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	suite.Run(t, new(MongoIntegrationSuite))
}

func (s *MongoIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	client, err := Connect(s.ctx, os.Getenv("MONGO_TEST_URI"))
	s.Require().NoError(err)

	db := client.Database("ahmetlimedya_test")
	st, err := New(db, nil)
	s.Require().NoError(err)
	s.st = st

	s.cleanup = func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	}
}

func (s *MongoIntegrationSuite) TearDownSuite() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *MongoIntegrationSuite) SetupTest() {
	for _, c := range []string{"news", "polls", "ads", "subscribers", "drafts"} {
		s.Require().NoError(s.st.ReplaceAll(s.ctx, c, nil))
	}
}

func (s *MongoIntegrationSuite) TestInsertGetRoundTrip() {
	rec, err := s.st.Insert(s.ctx, record.CollectionNews, record.EncodeArticle(record.Article{
		Title:               "Bağbozumu başladı",
		Slug:                "bagbozumu-basladi",
		PublishedAt:         "2025-09-01T10:00:00+03:00",
		ReadingTimeMinutes:  2,
		IsPublished:         true,
		BreakingWindowHours: 6,
		Video:               &record.Video{Kind: "youtube", URL: "https://youtu.be/abc"},
	}))
	s.Require().NoError(err)
	id := rec["id"].(string)
	s.NotEmpty(id)

	got, err := s.st.GetOne(s.ctx, record.CollectionNews, id)
	s.Require().NoError(err)

	a := record.DecodeArticle(got)
	s.Equal("Bağbozumu başladı", a.Title)
	s.Equal(2, a.ReadingTimeMinutes)
	s.Require().NotNil(a.Video)
	s.Equal("youtube", a.Video.Kind)
}

func (s *MongoIntegrationSuite) TestUpdateUnsetsNilFields() {
	rec, err := s.st.Insert(s.ctx, record.CollectionNews, record.Fields{
		"title":       "haber",
		"publishedAt": "2025-09-01T10:00:00Z",
	})
	s.Require().NoError(err)
	id := rec["id"].(string)

	updated, err := s.st.Update(s.ctx, record.CollectionNews, id, store.Patch{
		"publishedAt": nil,
		"isPublished": false,
	})
	s.Require().NoError(err)
	s.NotContains(updated, "publishedAt")
	s.Equal(false, updated["isPublished"])
}

func (s *MongoIntegrationSuite) TestNotFound() {
	_, err := s.st.GetOne(s.ctx, record.CollectionNews, "404")
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.st.Update(s.ctx, record.CollectionNews, "404", store.Patch{"title": "x"})
	s.ErrorIs(err, store.ErrNotFound)

	s.ErrorIs(s.st.Delete(s.ctx, record.CollectionNews, "404"), store.ErrNotFound)
}

func (s *MongoIntegrationSuite) seed(n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		rec, err := s.st.Insert(s.ctx, record.CollectionNews, record.Fields{
			"title":       fmt.Sprintf("haber %d", i),
			"publishedAt": fmt.Sprintf("2025-08-%02dT10:00:00Z", i),
			"viewCount":   i,
		})
		s.Require().NoError(err)
		ids = append(ids, rec["id"].(string))
	}
	return ids
}

func (s *MongoIntegrationSuite) TestCursorPaging() {
	s.seed(25)

	first, err := s.st.ListCursor(s.ctx, record.CollectionNews, store.CursorQuery{
		SortField:  "publishedAt",
		Descending: true,
		Limit:      21,
	})
	s.Require().NoError(err)
	s.Require().Len(first, 21, "probe row signals another page")

	marker := store.MarkerFor(first[19], "publishedAt")
	second, err := s.st.ListCursor(s.ctx, record.CollectionNews, store.CursorQuery{
		SortField:  "publishedAt",
		Descending: true,
		Start:      &marker,
		Limit:      21,
	})
	s.Require().NoError(err)
	s.Require().Len(second, 5)

	// no overlap between the pages
	seen := map[string]bool{}
	for _, rec := range first[:20] {
		seen[rec["id"].(string)] = true
	}
	for _, rec := range second {
		s.False(seen[rec["id"].(string)])
	}
}

func (s *MongoIntegrationSuite) TestCursorInclusiveRestart() {
	s.seed(10)

	page, err := s.st.ListCursor(s.ctx, record.CollectionNews, store.CursorQuery{
		SortField: "viewCount",
		Limit:     5,
	})
	s.Require().NoError(err)
	s.Require().Len(page, 5)

	marker := store.MarkerFor(page[0], "viewCount")
	replay, err := s.st.ListCursor(s.ctx, record.CollectionNews, store.CursorQuery{
		SortField: "viewCount",
		Start:     &marker,
		Inclusive: true,
		Limit:     5,
	})
	s.Require().NoError(err)
	s.Require().Len(replay, 5)
	s.Equal(page[0]["id"], replay[0]["id"])
}

func (s *MongoIntegrationSuite) TestBatchWrites() {
	ids := s.seed(3)

	err := s.st.UpdateMany(s.ctx, record.CollectionNews, ids[:2], store.Patch{"isPublished": true})
	s.Require().NoError(err)

	recs, err := s.st.ListAll(s.ctx, record.CollectionNews)
	s.Require().NoError(err)
	published := 0
	for _, rec := range recs {
		if b, _ := rec["isPublished"].(bool); b {
			published++
		}
	}
	s.Equal(2, published)

	s.Require().NoError(s.st.DeleteMany(s.ctx, record.CollectionNews, ids[:2]))
	recs, err = s.st.ListAll(s.ctx, record.CollectionNews)
	s.Require().NoError(err)
	s.Len(recs, 1)
}
