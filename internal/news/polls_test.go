package news

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tavukcu/ahmetlimedya/internal/record"
	"github.com/tavukcu/ahmetlimedya/internal/store"
	"github.com/tavukcu/ahmetlimedya/internal/store/flatfile"
)

type PollSuite struct {
	suite.Suite

	svc *Service
	ctx context.Context
}

func TestPollSuite(t *testing.T) {
	suite.Run(t, new(PollSuite))
}

func (s *PollSuite) SetupTest() {
	st, err := flatfile.New(s.T().TempDir(), log.New(&bytes.Buffer{}, "", 0))
	s.Require().NoError(err)

	s.svc = NewService(st, log.New(&bytes.Buffer{}, "", 0))
	s.svc.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	s.ctx = context.Background()
}

func (s *PollSuite) newPoll(question string, active bool) record.Poll {
	p, err := s.svc.CreatePoll(s.ctx, record.Poll{
		Question: question,
		Options:  []record.PollOption{{Text: "Evet"}, {Text: "Hayır"}},
		IsActive: active,
	})
	s.Require().NoError(err)
	return p
}

func (s *PollSuite) TestCreatePollValidation() {
	var ve *ValidationError

	_, err := s.svc.CreatePoll(s.ctx, record.Poll{Question: " "})
	s.ErrorAs(err, &ve)

	_, err = s.svc.CreatePoll(s.ctx, record.Poll{
		Question: "Tek seçenek?",
		Options:  []record.PollOption{{Text: "Evet"}, {Text: "  "}},
	})
	s.ErrorAs(err, &ve, "blank options do not count")
}

func (s *PollSuite) TestCreatePollZeroesCounters() {
	p, err := s.svc.CreatePoll(s.ctx, record.Poll{
		Question: "Sayaçlar sıfırlanır mı?",
		Options:  []record.PollOption{{Text: "Evet", VoteCount: 99}, {Text: "Hayır", VoteCount: 12}},
		TotalVotes: 111,
		VotersSeen: []string{"1.2.3.4"},
	})
	s.Require().NoError(err)

	s.Equal(0, p.TotalVotes)
	s.Empty(p.VotersSeen)
	s.Equal(0, p.Options[0].VoteCount)
	s.Equal("2025-09-01", p.StartDate)
}

func (s *PollSuite) TestSingleActivePoll() {
	first := s.newPoll("Birinci?", true)
	second := s.newPoll("İkinci?", true)

	polls, err := s.svc.ListPolls(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(polls, 2)

	activeCount := 0
	for _, p := range polls {
		if p.IsActive {
			activeCount++
			s.Equal(second.ID, p.ID)
		}
	}
	s.Equal(1, activeCount)

	// re-activating the first deactivates the second
	_, err = s.svc.UpdatePoll(s.ctx, first.ID, record.Fields{"isActive": true})
	s.Require().NoError(err)

	active, ok, _, err := s.svc.ActivePoll(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(first.ID, active.ID)
}

func (s *PollSuite) TestVoteAndDedupe() {
	s.newPoll("Oy verir misiniz?", true)

	voted, err := s.svc.Vote(s.ctx, "10.0.0.1", 0)
	s.Require().NoError(err)
	s.Equal(1, voted.TotalVotes)
	s.Equal(1, voted.Options[0].VoteCount)
	s.Empty(voted.VotersSeen, "fingerprints never leave the service")

	_, err = s.svc.Vote(s.ctx, "10.0.0.2", 1)
	s.Require().NoError(err)

	var ve *ValidationError
	_, err = s.svc.Vote(s.ctx, "10.0.0.1", 1)
	s.ErrorAs(err, &ve, "a fingerprint votes once")

	_, err = s.svc.Vote(s.ctx, "10.0.0.3", 5)
	s.ErrorAs(err, &ve, "option index out of range")

	got, _, voted2, err := s.svc.ActivePoll(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.True(voted2)
	s.Equal(2, got.TotalVotes)
	s.Empty(got.VotersSeen)
}

func (s *PollSuite) TestVoteWithoutActivePoll() {
	s.newPoll("Pasif anket", false)

	_, err := s.svc.Vote(s.ctx, "10.0.0.1", 0)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PollSuite) TestUpdatePollPreservesVotesByPosition() {
	p := s.newPoll("Seçenekler?", true)
	_, err := s.svc.Vote(s.ctx, "10.0.0.1", 0)
	s.Require().NoError(err)
	_, err = s.svc.Vote(s.ctx, "10.0.0.2", 0)
	s.Require().NoError(err)

	updated, err := s.svc.UpdatePoll(s.ctx, p.ID, record.Fields{
		"options": []any{
			map[string]any{"text": "Kesinlikle evet"},
			map[string]any{"text": "Hayır"},
			map[string]any{"text": "Kararsızım"},
		},
		"totalVotes": 0,
	})
	s.Require().NoError(err)

	s.Require().Len(updated.Options, 3)
	s.Equal("Kesinlikle evet", updated.Options[0].Text)
	s.Equal(2, updated.Options[0].VoteCount, "votes survive a text edit")
	s.Equal(0, updated.Options[2].VoteCount)
	s.Equal(2, updated.TotalVotes, "counters cannot be patched directly")
}

func (s *PollSuite) TestActivePollAbsent() {
	_, ok, _, err := s.svc.ActivePoll(s.ctx, "10.0.0.1")
	s.Require().NoError(err)
	s.False(ok)
}
