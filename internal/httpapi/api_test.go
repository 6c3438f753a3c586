package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tavukcu/ahmetlimedya/internal/auth"
	"github.com/tavukcu/ahmetlimedya/internal/news"
	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store/flatfile"
)

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishContentChanged(_ context.Context, collection, action string, _ []string) error {
	p.events = append(p.events, collection+"/"+action)
	return nil
}

func (p *recordingPublisher) Close() {}

type APISuite struct {
	suite.Suite

	server    *httptest.Server
	token     string
	publisher *recordingPublisher
	svc       *news.Service
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	logger := log.New(&bytes.Buffer{}, "", 0)

	st, err := flatfile.New(s.T().TempDir(), logger)
	s.Require().NoError(err)

	s.svc = news.NewService(st, logger)
	guard := auth.NewGuard("test-secret", 24*time.Hour)
	s.publisher = &recordingPublisher{}

	api := New(s.svc, guard, "admin123", 20, s.publisher, logger)
	s.server = httptest.NewServer(api.Router())
	s.token = guard.Issue()
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
}

func (s *APISuite) request(method, path, token string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (s *APISuite) TestHealthz() {
	resp, _ := s.request(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestAdminRoutesRequireToken() {
	resp, _ := s.request(http.MethodGet, "/api/admin/news", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.request(http.MethodGet, "/api/admin/news", "garbage.token", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.request(http.MethodGet, "/api/admin/news", s.token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestLogin() {
	resp, body := s.request(http.MethodPost, "/api/admin-login", "", map[string]any{"password": "admin123"})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(body["token"])

	resp, _ = s.request(http.MethodPost, "/api/admin-login", "", map[string]any{"password": "wrong"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *APISuite) TestArticleCRUD() {
	resp, created := s.request(http.MethodPost, "/api/admin/news", s.token, map[string]any{
		"title":    "Bağbozumu başladı",
		"bodyHtml": "<p>Hasat sezonu açıldı.</p>",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	id := created["id"].(string)
	s.Equal("bagbozumu-basladi", created["slug"])

	resp, got := s.request(http.MethodGet, "/api/news/"+id, "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Bağbozumu başladı", got["title"])

	// slug lookup serves the same article
	resp, bySlug := s.request(http.MethodGet, "/api/news/bagbozumu-basladi", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(id, bySlug["id"])

	resp, updated := s.request(http.MethodPut, "/api/admin/news/"+id, s.token, map[string]any{
		"title": "Bağbozumu sona erdi",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("bagbozumu-sona-erdi", updated["slug"])

	resp, _ = s.request(http.MethodDelete, "/api/admin/news/"+id, s.token, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp, _ = s.request(http.MethodGet, "/api/news/"+id, "", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	s.Equal([]string{"news/create", "news/update", "news/delete"}, s.publisher.events)
}

func (s *APISuite) TestCreateArticleValidation() {
	resp, body := s.request(http.MethodPost, "/api/admin/news", s.token, map[string]any{"title": "  "})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("validation", body["kind"])
}

func (s *APISuite) TestPublicListingPagination() {
	for i := 1; i <= 25; i++ {
		_, err := s.svc.CreateArticle(context.Background(), record.Article{
			Title: fmt.Sprintf("Haber %d", i),
			Slug:  fmt.Sprintf("haber-%d", i),
		})
		s.Require().NoError(err)
	}

	resp, body := s.request(http.MethodGet, "/api/news?page=1&limit=20", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Len(body["data"], 20)
	s.EqualValues(25, body["total"])
	s.EqualValues(2, body["totalPages"])

	resp, body = s.request(http.MethodGet, "/api/news?page=2&limit=20", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Len(body["data"], 5)
}

func (s *APISuite) TestStatefulAdminListing() {
	for i := 1; i <= 25; i++ {
		_, err := s.svc.CreateArticle(context.Background(), record.Article{
			Title: fmt.Sprintf("Haber %d", i),
			Slug:  fmt.Sprintf("haber-%d", i),
		})
		s.Require().NoError(err)
	}

	resp, first := s.request(http.MethodPost, "/api/admin/news/pages", s.token, map[string]any{
		"pageSize":  20,
		"sortField": "id",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	viewID := first["viewId"].(string)
	s.Len(first["items"], 20)
	s.Equal(true, first["hasNext"])
	s.Equal(false, first["hasPrev"])

	resp, second := s.request(http.MethodPost, "/api/admin/news/pages", s.token, map[string]any{
		"viewId": viewID,
		"op":     "next",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Len(second["items"], 5)
	s.Equal(false, second["hasNext"])
	s.Equal(true, second["hasPrev"])

	resp, _ = s.request(http.MethodPost, "/api/admin/news/pages", s.token, map[string]any{
		"viewId": "does-not-exist",
		"op":     "next",
	})
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = s.request(http.MethodPost, "/api/admin/news/pages", s.token, map[string]any{
		"viewId": viewID,
		"close":  true,
	})
	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *APISuite) TestBulkActions() {
	var ids []string
	for i := 1; i <= 3; i++ {
		_, created := s.request(http.MethodPost, "/api/admin/news", s.token, map[string]any{
			"title": fmt.Sprintf("Haber %d", i),
			"slug":  fmt.Sprintf("haber-%d", i),
		})
		ids = append(ids, created["id"].(string))
	}

	resp, body := s.request(http.MethodPost, "/api/admin/news/bulk", s.token, map[string]any{
		"action": "publish",
		"ids":    ids[:2],
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Len(body["affectedIds"], 2)

	// delete without confirmation is refused
	resp, body = s.request(http.MethodPost, "/api/admin/news/bulk", s.token, map[string]any{
		"action": "delete",
		"ids":    ids,
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("validation", body["kind"])

	resp, _ = s.request(http.MethodPost, "/api/admin/news/bulk", s.token, map[string]any{
		"action":  "delete",
		"ids":     ids,
		"confirm": true,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, listing := s.request(http.MethodGet, "/api/admin/news", s.token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Empty(listing["data"])
}

func (s *APISuite) TestSubscribeValidation() {
	resp, _ := s.request(http.MethodPost, "/api/subscribers", "", map[string]any{"email": "not-an-email"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.request(http.MethodPost, "/api/subscribers", "", map[string]any{"email": "okur@example.com"})
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp, _ = s.request(http.MethodPost, "/api/subscribers", "", map[string]any{"email": "okur@example.com"})
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestPollVoteOverHTTP() {
	resp, _ := s.request(http.MethodPost, "/api/admin/polls", s.token, map[string]any{
		"question": "Oy verir misiniz?",
		"options":  []map[string]any{{"text": "Evet"}, {"text": "Hayır"}},
		"isActive": true,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, body := s.request(http.MethodPost, "/api/poll/vote", "", map[string]any{"optionIdx": 0})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["hasVoted"])

	// the whole test suite shares one client IP, the second vote is a dupe
	resp, _ = s.request(http.MethodPost, "/api/poll/vote", "", map[string]any{"optionIdx": 1})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, body = s.request(http.MethodGet, "/api/poll", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["hasVoted"])
	poll := body["data"].(map[string]any)
	s.NotContains(poll, "votersSeen")
}

func (s *APISuite) TestBreakingAndPopular() {
	_, created := s.request(http.MethodPost, "/api/admin/news", s.token, map[string]any{
		"title":      "Fırtına uyarısı",
		"isBreaking": true,
	})
	id := created["id"].(string)

	resp, body := s.request(http.MethodGet, "/api/breaking", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["active"])
	s.Len(body["data"], 1)

	resp, _ = s.request(http.MethodPost, "/api/news/"+id+"/view", "", nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp, body = s.request(http.MethodGet, "/api/popular", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Len(body["data"], 1)
}

func (s *APISuite) TestDraftRoutes() {
	resp, draft := s.request(http.MethodPut, "/api/admin/drafts", s.token, map[string]any{
		"articleId": "42",
		"formData":  map[string]any{"title": "taslak"},
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("42_autosave", draft["id"])

	resp, loaded := s.request(http.MethodGet, "/api/admin/drafts?articleId=42", s.token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("42_autosave", loaded["id"])

	resp, _ = s.request(http.MethodDelete, "/api/admin/drafts?articleId=42", s.token, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)

	resp, _ = s.request(http.MethodGet, "/api/admin/drafts?articleId=42", s.token, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}
