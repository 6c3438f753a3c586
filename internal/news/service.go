// Package news implements the editorial rules of the content service on
// top of the backend-agnostic store: derived article fields, the breaking
// window lifecycle, the single-active-poll invariant, ad slot upserts,
// newsletter dedupe and draft autosave expiry.
package news

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

// ValidationError reports caller-supplied data violating a precondition.
// It is raised before any backend call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "news: " + e.Reason }

type Service struct {
	st     store.Store
	logger *log.Logger
	now    func() time.Time
}

func NewService(st store.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{st: st, logger: logger, now: time.Now}
}

// Store exposes the underlying gateway for the engines that need it.
func (s *Service) Store() store.Store { return s.st }

func (s *Service) isoNow() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Service) publishStamp() string {
	return s.now().In(trtZone).Format("2006-01-02T15:04:05-07:00")
}

// --- Articles ---

func (s *Service) ListArticles(ctx context.Context) ([]record.Article, error) {
	recs, err := s.st.ListAll(ctx, record.CollectionNews)
	if err != nil {
		return nil, err
	}
	articles := make([]record.Article, 0, len(recs))
	for _, rec := range recs {
		articles = append(articles, record.DecodeArticle(rec))
	}
	return articles, nil
}

// GetArticle resolves by id first, then treats idOrSlug as a slug.
func (s *Service) GetArticle(ctx context.Context, idOrSlug string) (record.Article, error) {
	rec, err := s.st.GetOne(ctx, record.CollectionNews, idOrSlug)
	if err == nil {
		return record.DecodeArticle(rec), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return record.Article{}, err
	}

	articles, err := s.ListArticles(ctx)
	if err != nil {
		return record.Article{}, err
	}
	for _, a := range articles {
		if a.Slug == idOrSlug {
			return a, nil
		}
	}
	return record.Article{}, store.ErrNotFound
}

// CreateArticle fills every derived field before inserting: slug from
// title, excerpt from the body prefix, reading time from the word count,
// the default author, category and cover image, and the breaking window
// start when the article is born breaking.
func (s *Service) CreateArticle(ctx context.Context, a record.Article) (record.Article, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return record.Article{}, &ValidationError{Reason: "title is required"}
	}

	if a.Slug != "" {
		a.Slug = Slugify(a.Slug)
	} else {
		a.Slug = Slugify(a.Title)
	}
	if a.Category == "" {
		a.Category = record.DefaultCategory
	}
	a.BodyHTML = strings.TrimSpace(a.BodyHTML)
	if a.Excerpt == "" {
		a.Excerpt = excerptOf(a.BodyHTML)
	}
	if a.BodyHTML == "" {
		a.BodyHTML = a.Excerpt
	}
	if a.CoverImage == "" {
		a.CoverImage = record.DefaultCoverImage
	}
	if a.Author == "" {
		a.Author = record.DefaultAuthor
	}
	if a.PublishedAt == "" {
		a.PublishedAt = s.publishStamp()
	}
	if a.ReadingTimeMinutes < 1 {
		a.ReadingTimeMinutes = ReadingTime(a.BodyHTML)
	}
	if a.BreakingWindowHours == 0 {
		a.BreakingWindowHours = record.DefaultBreakingWindowHours
	}
	if a.IsBreaking {
		a.BreakingStartedAt = s.isoNow()
	} else {
		a.BreakingStartedAt = ""
	}

	rec, err := s.st.Insert(ctx, record.CollectionNews, record.EncodeArticle(a))
	if err != nil {
		return record.Article{}, err
	}
	return record.DecodeArticle(rec), nil
}

// UpdateArticle applies a partial patch of canonical fields. It owns the
// breaking window transitions: false->true stamps breakingStartedAt,
// true->true preserves it, ->false clears it. Slug and reading time are
// re-derived when their source fields change without an explicit override.
func (s *Service) UpdateArticle(ctx context.Context, id string, patch record.Fields) (record.Article, error) {
	existing, err := s.st.GetOne(ctx, record.CollectionNews, id)
	if err != nil {
		return record.Article{}, err
	}
	current := record.DecodeArticle(existing)

	patch = store.ApplyPatch(patch, nil)
	delete(patch, "id")

	if raw, ok := patch["slug"]; ok {
		slug, _ := raw.(string)
		if strings.TrimSpace(slug) == "" {
			delete(patch, "slug")
		} else {
			patch["slug"] = Slugify(slug)
		}
	}
	if _, ok := patch["slug"]; !ok {
		if title, ok := patch["title"].(string); ok && strings.TrimSpace(title) != "" {
			patch["slug"] = Slugify(title)
		}
	}

	if body, ok := patch["bodyHtml"].(string); ok {
		if _, override := patch["readingTimeMinutes"]; !override {
			patch["readingTimeMinutes"] = ReadingTime(body)
		}
	}

	if raw, ok := patch["isBreaking"]; ok {
		next, _ := raw.(bool)
		switch {
		case next && !current.IsBreaking:
			patch["breakingStartedAt"] = s.isoNow()
		case next && current.IsBreaking:
			delete(patch, "breakingStartedAt")
		case !next:
			patch["breakingStartedAt"] = nil
		}
	}

	rec, err := s.st.Update(ctx, record.CollectionNews, id, patch)
	if err != nil {
		return record.Article{}, err
	}
	return record.DecodeArticle(rec), nil
}

func (s *Service) DeleteArticle(ctx context.Context, id string) error {
	return s.st.Delete(ctx, record.CollectionNews, id)
}

// IncrementView bumps the monotonic view counter by one.
func (s *Service) IncrementView(ctx context.Context, id string) error {
	rec, err := s.st.GetOne(ctx, record.CollectionNews, id)
	if err != nil {
		return err
	}
	views := record.DecodeArticle(rec).ViewCount
	_, err = s.st.Update(ctx, record.CollectionNews, id, record.Fields{"viewCount": views + 1})
	return err
}

// Search matches q case-insensitively against title, excerpt and category.
func (s *Service) Search(ctx context.Context, q string) ([]record.Article, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil, nil
	}
	articles, err := s.ListArticles(ctx)
	if err != nil {
		return nil, err
	}
	var hits []record.Article
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Excerpt), q) ||
			strings.Contains(strings.ToLower(a.Category), q) {
			hits = append(hits, a)
		}
	}
	return hits, nil
}

// Breaking returns the articles whose breaking window is still open. When
// none are active it falls back to the ten most recent articles, flagged
// inactive so the ticker can render them differently.
func (s *Service) Breaking(ctx context.Context) ([]record.Article, bool, error) {
	articles, err := s.ListArticles(ctx)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	var active []record.Article
	for _, a := range articles {
		if !a.IsBreaking || a.BreakingStartedAt == "" {
			continue
		}
		started, err := time.Parse(time.RFC3339, a.BreakingStartedAt)
		if err != nil {
			continue
		}
		window := time.Duration(a.BreakingWindowHours) * time.Hour
		if now.Sub(started) < window {
			active = append(active, a)
		}
	}
	if len(active) > 0 {
		return active, true, nil
	}

	if len(articles) > 10 {
		articles = articles[:10]
	}
	return articles, false, nil
}

// Popular returns the five most viewed articles.
func (s *Service) Popular(ctx context.Context) ([]record.Article, error) {
	articles, err := s.ListArticles(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].ViewCount > articles[j].ViewCount
	})
	if len(articles) > 5 {
		articles = articles[:5]
	}
	return articles, nil
}

func excerptOf(body string) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) > 200 {
		return string(runes[:200])
	}
	return body
}
