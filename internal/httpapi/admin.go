package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tavukcu/ahmetlimedya/internal/bulk"
	"github.com/tavukcu/ahmetlimedya/internal/page"
	"github.com/tavukcu/ahmetlimedya/internal/record"
)

func (s *Server) adminListNews(w http.ResponseWriter, r *http.Request) {
	articles, err := s.svc.ListArticles(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": articles})
}

func (s *Server) createNews(w http.ResponseWriter, r *http.Request) {
	var a record.Article
	if !s.decode(w, r, &a) {
		return
	}
	created, err := s.svc.CreateArticle(r.Context(), a)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionNews, "create", []string{created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateNews(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch record.Fields
	if !s.decode(w, r, &patch) {
		return
	}
	updated, err := s.svc.UpdateArticle(r.Context(), id, patch)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionNews, "update", []string{id})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteNews(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.svc.DeleteArticle(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionNews, "delete", []string{id})
	w.WriteHeader(http.StatusNoContent)
}

// newsPages drives a stateful admin listing. The first request omits viewId
// and answers with a fresh handle; later requests replay it with op next or
// prev to walk the pages.
func (s *Server) newsPages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ViewID     string        `json:"viewId"`
		Op         string        `json:"op"`
		PageSize   int           `json:"pageSize"`
		SortField  string        `json:"sortField"`
		Descending *bool         `json:"descending"`
		Filter     record.Fields `json:"filter"`
		Close      bool          `json:"close"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if req.Close {
		if req.ViewID != "" {
			s.views.Drop(req.ViewID)
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	viewID := req.ViewID
	var view *page.View
	if viewID == "" {
		descending := true
		if req.Descending != nil {
			descending = *req.Descending
		}
		pageSize := req.PageSize
		if pageSize <= 0 {
			pageSize = s.pageSize
		}
		viewID, view = s.views.Create(page.Options{
			Collection: record.CollectionNews,
			PageSize:   pageSize,
			SortField:  req.SortField,
			Descending: descending,
			Filter:     req.Filter,
		})
	} else {
		var ok bool
		view, ok = s.views.Get(viewID)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown view"})
			return
		}
	}

	var (
		result page.Result
		err    error
	)
	switch req.Op {
	case "", "first":
		result, err = view.First(r.Context())
	case "next":
		result, err = view.Next(r.Context())
	case "prev":
		result, err = view.Prev(r.Context())
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "op must be first, next or prev"})
		return
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"viewId":  viewID,
		"items":   result.Items,
		"page":    result.Page,
		"hasNext": result.HasNext,
		"hasPrev": result.HasPrev,
	})
}

func (s *Server) bulkNews(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string   `json:"action" validate:"required"`
		IDs     []string `json:"ids"`
		Confirm bool     `json:"confirm"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	sel := bulk.NewSelection(s.svc.Store(), record.CollectionNews)
	sel.SelectAll(req.IDs)
	outcome, err := sel.PerformAction(r.Context(), bulk.Action(req.Action), req.Confirm)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionNews, string(outcome.Action), outcome.AffectedIDs)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) adminListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := s.svc.ListPolls(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": polls})
}

func (s *Server) createPoll(w http.ResponseWriter, r *http.Request) {
	var p record.Poll
	if !s.decode(w, r, &p) {
		return
	}
	created, err := s.svc.CreatePoll(r.Context(), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionPolls, "create", []string{created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updatePoll(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch record.Fields
	if !s.decode(w, r, &patch) {
		return
	}
	updated, err := s.svc.UpdatePoll(r.Context(), id, patch)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionPolls, "update", []string{id})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deletePoll(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.svc.DeletePoll(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionPolls, "delete", []string{id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminListAds(w http.ResponseWriter, r *http.Request) {
	ads, err := s.svc.ListAds(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": ads})
}

func (s *Server) upsertAd(w http.ResponseWriter, r *http.Request) {
	var ad record.AdSlot
	if !s.decode(w, r, &ad) {
		return
	}
	saved, created, err := s.svc.UpsertAd(r.Context(), ad)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	action := "update"
	status := http.StatusOK
	if created {
		action = "create"
		status = http.StatusCreated
	}
	s.notify(r.Context(), record.CollectionAds, action, []string{saved.ID})
	writeJSON(w, status, saved)
}

func (s *Server) deleteAd(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.svc.DeleteAd(r.Context(), id); err != nil {
		s.writeErr(w, err)
		return
	}
	s.notify(r.Context(), record.CollectionAds, "delete", []string{id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.ListSubscribers(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": subs})
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ArticleID string         `json:"articleId"`
		UserID    string         `json:"userId"`
		FormData  map[string]any `json:"formData" validate:"required"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = "admin"
	}
	draft, err := s.svc.SaveDraft(r.Context(), req.ArticleID, req.UserID, req.FormData)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) loadDraft(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = "admin"
	}
	draft, err := s.svc.LoadDraft(r.Context(), r.URL.Query().Get("articleId"), userID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) discardDraft(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = "admin"
	}
	if err := s.svc.DiscardDraft(r.Context(), r.URL.Query().Get("articleId"), userID); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
