package news

import (
	"context"
	"strings"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
)

func (s *Service) ListPolls(ctx context.Context) ([]record.Poll, error) {
	recs, err := s.st.ListAll(ctx, record.CollectionPolls)
	if err != nil {
		return nil, err
	}
	polls := make([]record.Poll, 0, len(recs))
	for _, rec := range recs {
		polls = append(polls, record.DecodePoll(rec))
	}
	return polls, nil
}

// CreatePoll validates the poll and inserts it with zeroed counters.
// Creating it active deactivates every other poll first, so at most one
// poll is ever active.
func (s *Service) CreatePoll(ctx context.Context, p record.Poll) (record.Poll, error) {
	p.Question = strings.TrimSpace(p.Question)
	if p.Question == "" {
		return record.Poll{}, &ValidationError{Reason: "question is required"}
	}

	options := p.Options[:0:0]
	for _, o := range p.Options {
		o.Text = strings.TrimSpace(o.Text)
		if o.Text == "" {
			continue
		}
		options = append(options, record.PollOption{Text: o.Text})
	}
	if len(options) < 2 {
		return record.Poll{}, &ValidationError{Reason: "at least 2 options are required"}
	}
	p.Options = options
	p.TotalVotes = 0
	p.VotersSeen = nil
	if p.StartDate == "" {
		p.StartDate = s.now().Format("2006-01-02")
	}

	if p.IsActive {
		if err := s.deactivatePolls(ctx, ""); err != nil {
			return record.Poll{}, err
		}
	}

	rec, err := s.st.Insert(ctx, record.CollectionPolls, record.EncodePoll(p))
	if err != nil {
		return record.Poll{}, err
	}
	return record.DecodePoll(rec), nil
}

// UpdatePoll patches a poll. Option edits keep the existing vote counts by
// position; activating the poll deactivates all others first.
func (s *Service) UpdatePoll(ctx context.Context, id string, patch record.Fields) (record.Poll, error) {
	existing, err := s.st.GetOne(ctx, record.CollectionPolls, id)
	if err != nil {
		return record.Poll{}, err
	}
	current := record.DecodePoll(existing)

	patch = store.ApplyPatch(patch, nil)
	delete(patch, "id")
	// Counters are owned by the voting path.
	delete(patch, "totalVotes")
	delete(patch, "votersSeen")

	if raw, ok := patch["options"]; ok {
		var options []any
		for i, item := range rawSlice(raw) {
			m, _ := item.(map[string]any)
			if m == nil {
				continue
			}
			text, _ := m["text"].(string)
			votes := 0
			if i < len(current.Options) {
				votes = current.Options[i].VoteCount
			}
			options = append(options, record.Fields{"text": strings.TrimSpace(text), "voteCount": votes})
		}
		patch["options"] = options
	}

	if active, ok := patch["isActive"].(bool); ok && active {
		if err := s.deactivatePolls(ctx, id); err != nil {
			return record.Poll{}, err
		}
	}

	rec, err := s.st.Update(ctx, record.CollectionPolls, id, patch)
	if err != nil {
		return record.Poll{}, err
	}
	return record.DecodePoll(rec), nil
}

func (s *Service) DeletePoll(ctx context.Context, id string) error {
	return s.st.Delete(ctx, record.CollectionPolls, id)
}

// ActivePoll returns the currently active poll with voter fingerprints
// stripped, plus whether the given fingerprint already voted. The bool is
// false with a zero poll when no poll is active.
func (s *Service) ActivePoll(ctx context.Context, fingerprint string) (record.Poll, bool, bool, error) {
	polls, err := s.ListPolls(ctx)
	if err != nil {
		return record.Poll{}, false, false, err
	}
	for _, p := range polls {
		if !p.IsActive {
			continue
		}
		voted := containsVoter(p.VotersSeen, fingerprint)
		p.VotersSeen = nil
		return p, true, voted, nil
	}
	return record.Poll{}, false, false, nil
}

// Vote records one vote on the active poll. A fingerprint may vote at most
// once; an out-of-range option index is rejected before any write.
func (s *Service) Vote(ctx context.Context, fingerprint string, optionIdx int) (record.Poll, error) {
	recs, err := s.st.ListAll(ctx, record.CollectionPolls)
	if err != nil {
		return record.Poll{}, err
	}

	for _, rec := range recs {
		p := record.DecodePoll(rec)
		if !p.IsActive {
			continue
		}
		if containsVoter(p.VotersSeen, fingerprint) {
			return record.Poll{}, &ValidationError{Reason: "fingerprint already voted"}
		}
		if optionIdx < 0 || optionIdx >= len(p.Options) {
			return record.Poll{}, &ValidationError{Reason: "invalid option"}
		}

		p.Options[optionIdx].VoteCount++
		p.TotalVotes++
		p.VotersSeen = append(p.VotersSeen, fingerprint)

		enc := record.EncodePoll(p)
		updated, err := s.st.Update(ctx, record.CollectionPolls, p.ID, record.Fields{
			"options":    enc["options"],
			"totalVotes": enc["totalVotes"],
			"votersSeen": enc["votersSeen"],
		})
		if err != nil {
			return record.Poll{}, err
		}
		out := record.DecodePoll(updated)
		out.VotersSeen = nil
		return out, nil
	}
	return record.Poll{}, store.ErrNotFound
}

// deactivatePolls clears the active flag on every poll except keep.
func (s *Service) deactivatePolls(ctx context.Context, keep string) error {
	polls, err := s.ListPolls(ctx)
	if err != nil {
		return err
	}
	for _, p := range polls {
		if p.ID == keep || !p.IsActive {
			continue
		}
		if _, err := s.st.Update(ctx, record.CollectionPolls, p.ID, record.Fields{"isActive": false}); err != nil {
			return err
		}
	}
	return nil
}

func containsVoter(voters []string, fingerprint string) bool {
	for _, v := range voters {
		if v == fingerprint {
			return true
		}
	}
	return false
}

func rawSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
