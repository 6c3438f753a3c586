package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tavukcu/ahmetlimedya/internal/record"
)

// listNews serves the public article listing with optional category filter
// and simple offset paging.
func (s *Server) listNews(w http.ResponseWriter, r *http.Request) {
	articles, err := s.svc.ListArticles(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := articles[:0:0]
		for _, a := range articles {
			if a.Category == category {
				filtered = append(filtered, a)
			}
		}
		articles = filtered
	}

	pageNum := queryInt(r, "page", 1)
	if pageNum < 1 {
		pageNum = 1
	}
	limit := queryInt(r, "limit", s.pageSize)
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	total := len(articles)
	start := (pageNum - 1) * limit
	end := start + limit
	var items []record.Article
	if start < total {
		if end > total {
			end = total
		}
		items = articles[start:end]
	}
	if items == nil {
		items = []record.Article{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"page":       pageNum,
		"limit":      limit,
		"total":      total,
		"totalPages": (total + limit - 1) / limit,
	})
}

func (s *Server) getNews(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.GetArticle(r.Context(), mux.Vars(r)["idOrSlug"])
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) trackView(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.IncrementView(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	hits, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if hits == nil {
		hits = []record.Article{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": hits})
}

func (s *Server) breaking(w http.ResponseWriter, r *http.Request) {
	articles, active, err := s.svc.Breaking(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}

	type headline struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}
	headlines := make([]headline, 0, len(articles))
	for _, a := range articles {
		headlines = append(headlines, headline{ID: a.ID, Title: a.Title, Slug: a.Slug})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": headlines, "active": active})
}

func (s *Server) popular(w http.ResponseWriter, r *http.Request) {
	articles, err := s.svc.Popular(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": articles})
}

func (s *Server) activeAds(w http.ResponseWriter, r *http.Request) {
	ads, err := s.svc.ActiveAds(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ads})
}

func (s *Server) activePoll(w http.ResponseWriter, r *http.Request) {
	poll, ok, voted, err := s.svc.ActivePoll(r.Context(), clientIP(r))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": poll, "hasVoted": voted})
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionIdx *int `json:"optionIdx" validate:"required"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	poll, err := s.svc.Vote(r.Context(), clientIP(r), *req.OptionIdx)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": poll, "hasVoted": true})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	created, err := s.svc.Subscribe(r.Context(), req.Email)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, map[string]any{"message": "already subscribed"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "subscribed"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
