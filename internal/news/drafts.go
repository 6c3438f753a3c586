package news

import (
	"context"
	"errors"
	"time"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

// Draft snapshots live for seven days from their last save.
const draftTTL = 7 * 24 * time.Hour

// SaveDraft stores an autosave snapshot for (articleID|"new", userID),
// overwriting any previous snapshot under the same key.
func (s *Service) SaveDraft(ctx context.Context, articleID, userID string, formData map[string]any) (record.Draft, error) {
	if userID == "" {
		return record.Draft{}, &ValidationError{Reason: "user id is required"}
	}

	d := record.Draft{
		ID:        record.DraftKey(articleID, userID),
		ArticleID: articleID,
		UserID:    userID,
		FormData:  formData,
		SavedAt:   s.isoNow(),
		ExpiresAt: s.now().UTC().Add(draftTTL).Format(time.RFC3339),
	}

	enc := record.EncodeDraft(d)
	if _, err := s.st.Update(ctx, record.CollectionDrafts, d.ID, enc); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return record.Draft{}, err
		}
		if _, err := s.st.Insert(ctx, record.CollectionDrafts, enc); err != nil {
			return record.Draft{}, err
		}
	}
	return d, nil
}

// LoadDraft returns the snapshot for the key, or ErrNotFound when none
// exists or the stored one has expired. Expired snapshots are logically
// invisible even if not yet purged.
func (s *Service) LoadDraft(ctx context.Context, articleID, userID string) (record.Draft, error) {
	rec, err := s.st.GetOne(ctx, record.CollectionDrafts, record.DraftKey(articleID, userID))
	if err != nil {
		return record.Draft{}, err
	}
	d := record.DecodeDraft(rec)

	expires, err := time.Parse(time.RFC3339, d.ExpiresAt)
	if err != nil || !expires.After(s.now()) {
		return record.Draft{}, store.ErrNotFound
	}
	return d, nil
}

// DiscardDraft removes the snapshot, called on publish or explicit discard.
func (s *Service) DiscardDraft(ctx context.Context, articleID, userID string) error {
	err := s.st.Delete(ctx, record.CollectionDrafts, record.DraftKey(articleID, userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
