package news

import (
	"context"
	"strings"

	"github.com/tavukcu/ahmetlimedya/internal/record"
)

func (s *Service) ListAds(ctx context.Context) ([]record.AdSlot, error) {
	recs, err := s.st.ListAll(ctx, record.CollectionAds)
	if err != nil {
		return nil, err
	}
	ads := make([]record.AdSlot, 0, len(recs))
	for _, rec := range recs {
		ads = append(ads, record.DecodeAdSlot(rec))
	}
	return ads, nil
}

// ActiveAds returns only the slots currently switched on.
func (s *Service) ActiveAds(ctx context.Context) ([]record.AdSlot, error) {
	ads, err := s.ListAds(ctx)
	if err != nil {
		return nil, err
	}
	active := ads[:0:0]
	for _, ad := range ads {
		if ad.IsActive {
			active = append(active, ad)
		}
	}
	return active, nil
}

// UpsertAd writes an ad by its natural key: a second write to the same
// slot name updates the existing record instead of duplicating it.
func (s *Service) UpsertAd(ctx context.Context, ad record.AdSlot) (record.AdSlot, bool, error) {
	ad.SlotName = strings.TrimSpace(ad.SlotName)
	if ad.SlotName == "" {
		return record.AdSlot{}, false, &ValidationError{Reason: "slot name is required"}
	}
	if ad.Title == "" {
		ad.Title = ad.SlotName
	}

	existing, err := s.ListAds(ctx)
	if err != nil {
		return record.AdSlot{}, false, err
	}
	for _, cur := range existing {
		if cur.SlotName != ad.SlotName {
			continue
		}
		ad.ID = cur.ID
		rec, err := s.st.Update(ctx, record.CollectionAds, cur.ID, record.EncodeAdSlot(ad))
		if err != nil {
			return record.AdSlot{}, false, err
		}
		return record.DecodeAdSlot(rec), false, nil
	}

	rec, err := s.st.Insert(ctx, record.CollectionAds, record.EncodeAdSlot(ad))
	if err != nil {
		return record.AdSlot{}, false, err
	}
	return record.DecodeAdSlot(rec), true, nil
}

func (s *Service) DeleteAd(ctx context.Context, id string) error {
	return s.st.Delete(ctx, record.CollectionAds, id)
}

// --- Newsletter subscribers ---

func (s *Service) ListSubscribers(ctx context.Context) ([]record.Subscriber, error) {
	recs, err := s.st.ListAll(ctx, record.CollectionSubscribers)
	if err != nil {
		return nil, err
	}
	subs := make([]record.Subscriber, 0, len(recs))
	for _, rec := range recs {
		subs = append(subs, record.DecodeSubscriber(rec))
	}
	return subs, nil
}

// Subscribe registers an email address, case-insensitively deduplicated.
// The bool reports whether a new subscription was created.
func (s *Service) Subscribe(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, &ValidationError{Reason: "email is required"}
	}

	subs, err := s.ListSubscribers(ctx)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		if strings.ToLower(sub.Email) == email {
			return false, nil
		}
	}

	_, err = s.st.Insert(ctx, record.CollectionSubscribers, record.EncodeSubscriber(record.Subscriber{
		Email:        email,
		SubscribedAt: s.isoNow(),
	}))
	if err != nil {
		return false, err
	}
	return true, nil
}
