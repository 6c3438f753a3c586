// Package httpapi exposes the content core over HTTP: the public read
// surface, the admin CRUD and bulk routes behind the token guard, and the
// paged admin listing.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"

	"github.com/tavukcu/ahmetlimedya/internal/auth"
	"github.com/tavukcu/ahmetlimedya/internal/bulk"
	"github.com/tavukcu/ahmetlimedya/internal/event"
	"github.com/tavukcu/ahmetlimedya/internal/news"
	"github.com/tavukcu/ahmetlimedya/internal/page"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

type Server struct {
	svc       *news.Service
	guard     *auth.Guard
	password  string
	pageSize  int
	views     *page.Registry
	publisher event.Publisher
	validate  *validator.Validate
	logger    *log.Logger
}

// New wires the HTTP layer. publisher may be nil, which disables change
// notifications.
func New(svc *news.Service, guard *auth.Guard, password string, pageSize int, publisher event.Publisher, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Server{
		svc:       svc,
		guard:     guard,
		password:  password,
		pageSize:  pageSize,
		views:     page.NewRegistry(svc.Store()),
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/news", s.listNews).Methods(http.MethodGet)
	api.HandleFunc("/news/{idOrSlug}", s.getNews).Methods(http.MethodGet)
	api.HandleFunc("/news/{id}/view", s.trackView).Methods(http.MethodPost)
	api.HandleFunc("/search", s.search).Methods(http.MethodGet)
	api.HandleFunc("/breaking", s.breaking).Methods(http.MethodGet)
	api.HandleFunc("/popular", s.popular).Methods(http.MethodGet)
	api.HandleFunc("/ads", s.activeAds).Methods(http.MethodGet)
	api.HandleFunc("/poll", s.activePoll).Methods(http.MethodGet)
	api.HandleFunc("/poll/vote", s.vote).Methods(http.MethodPost)
	api.HandleFunc("/subscribers", s.subscribe).Methods(http.MethodPost)
	api.HandleFunc("/admin-login", s.adminLogin).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireToken)
	admin.HandleFunc("/news", s.adminListNews).Methods(http.MethodGet)
	admin.HandleFunc("/news", s.createNews).Methods(http.MethodPost)
	admin.HandleFunc("/news/pages", s.newsPages).Methods(http.MethodPost)
	admin.HandleFunc("/news/bulk", s.bulkNews).Methods(http.MethodPost)
	admin.HandleFunc("/news/{id}", s.updateNews).Methods(http.MethodPut)
	admin.HandleFunc("/news/{id}", s.deleteNews).Methods(http.MethodDelete)
	admin.HandleFunc("/polls", s.adminListPolls).Methods(http.MethodGet)
	admin.HandleFunc("/polls", s.createPoll).Methods(http.MethodPost)
	admin.HandleFunc("/polls/{id}", s.updatePoll).Methods(http.MethodPut)
	admin.HandleFunc("/polls/{id}", s.deletePoll).Methods(http.MethodDelete)
	admin.HandleFunc("/ads", s.adminListAds).Methods(http.MethodGet)
	admin.HandleFunc("/ads", s.upsertAd).Methods(http.MethodPost)
	admin.HandleFunc("/ads/{id}", s.deleteAd).Methods(http.MethodDelete)
	admin.HandleFunc("/subscribers", s.adminListSubscribers).Methods(http.MethodGet)
	admin.HandleFunc("/drafts", s.saveDraft).Methods(http.MethodPut)
	admin.HandleFunc("/drafts", s.loadDraft).Methods(http.MethodGet)
	admin.HandleFunc("/drafts", s.discardDraft).Methods(http.MethodDelete)

	return r
}

// requireToken gates every admin route behind a valid bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !s.guard.Verify(token) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password" validate:"required"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.Password)), []byte(s.password)) == 0 {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": s.guard.Issue()})
}

// decode unmarshals and validates a JSON body, answering 400 itself on
// failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return false
	}
	if v := reflect.ValueOf(dst); v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct {
		if err := s.validate.Struct(dst); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return false
		}
	}
	return true
}

// notify emits a change event; failures are logged, never surfaced.
func (s *Server) notify(ctx context.Context, collection, action string, ids []string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishContentChanged(ctx, collection, action, ids); err != nil {
		s.logger.Printf("publish %s/%s event: %v", collection, action, err)
	}
}

// writeErr maps the error taxonomy onto status codes: validation failures
// are 400, missing records 404, unreachable backends 503.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	var nv *news.ValidationError
	var bv *bulk.ValidationError
	var bf *bulk.FailedError
	switch {
	case errors.As(err, &nv), errors.As(err, &bv):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "kind": "validation"})
	case errors.As(err, &bf):
		s.logger.Printf("bulk %s failed: %v", bf.Action, bf.Err)
		status := http.StatusInternalServerError
		if errors.Is(bf.Err, store.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(bf.Err, store.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"error": bf.Error(), "kind": "bulk"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, store.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "backend unavailable", "kind": "backend"})
	default:
		s.logger.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP prefers the first X-Forwarded-For hop, used as the poll voter
// fingerprint.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
