package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleRoundTrip(t *testing.T) {
	in := Article{
		ID:                  "42",
		Slug:                "bagbozumu-basladi",
		Category:            "Üzüm & Bağcılık",
		Title:               "Bağbozumu başladı",
		Excerpt:             "Hasat sezonu açıldı",
		BodyHTML:            "<p>Hasat sezonu açıldı.</p>",
		Author:              "Ayşe Yılmaz",
		CoverImage:          "https://example.com/cover.jpg",
		PublishedAt:         "2025-09-01T10:00:00+03:00",
		ReadingTimeMinutes:  3,
		ViewCount:           17,
		IsPublished:         true,
		IsBreaking:          true,
		IsFeatured:          false,
		BreakingWindowHours: 4,
		BreakingStartedAt:   "2025-09-01T07:00:00Z",
		Video: &Video{
			Kind:      "youtube",
			URL:       "https://youtu.be/abc",
			EmbedURL:  "https://www.youtube.com/embed/abc",
			Thumbnail: "https://img.youtube.com/vi/abc/0.jpg",
		},
	}

	out := DecodeArticle(EncodeArticle(in))
	assert.Equal(t, in, out)
}

func TestEncodeArticleOmitsAbsentOptionals(t *testing.T) {
	f := EncodeArticle(Article{ID: "1", Title: "t"})

	_, hasPublished := f["publishedAt"]
	_, hasBreakingStart := f["breakingStartedAt"]
	_, hasVideo := f["video"]
	assert.False(t, hasPublished)
	assert.False(t, hasBreakingStart)
	assert.False(t, hasVideo)
}

func TestDecodeArticleDefaults(t *testing.T) {
	a := DecodeArticle(Fields{"id": "1", "title": "t"})

	assert.Equal(t, DefaultAuthor, a.Author)
	assert.Equal(t, DefaultBreakingWindowHours, a.BreakingWindowHours)
	assert.Equal(t, 1, a.ReadingTimeMinutes)
	assert.Nil(t, a.Video)
}

func TestDecodeArticleNumericCoercion(t *testing.T) {
	// Numbers come back as float64 from JSON files and as int32/int64 from
	// document stores.
	a := DecodeArticle(Fields{
		"id":                  "7",
		"viewCount":           float64(12),
		"readingTimeMinutes":  int64(4),
		"breakingWindowHours": int32(2),
	})

	assert.Equal(t, 12, a.ViewCount)
	assert.Equal(t, 4, a.ReadingTimeMinutes)
	assert.Equal(t, 2, a.BreakingWindowHours)
}

func TestPollRoundTrip(t *testing.T) {
	in := Poll{
		ID:       "3",
		Question: "En sevdiğiniz kategori?",
		Options: []PollOption{
			{Text: "Gündem", VoteCount: 5},
			{Text: "Spor", VoteCount: 2},
		},
		IsActive:   true,
		TotalVotes: 7,
		StartDate:  "2025-08-01",
		VotersSeen: []string{"10.0.0.1", "10.0.0.2"},
	}

	out := DecodePoll(EncodePoll(in))
	assert.Equal(t, in, out)
}

func TestAdSlotDecodeFallsBackToSlotName(t *testing.T) {
	ad := DecodeAdSlot(Fields{"id": "1", "slotName": "sidebar-1"})
	assert.Equal(t, "sidebar-1", ad.Title)
}

func TestSubscriberRoundTrip(t *testing.T) {
	in := Subscriber{ID: "9", Email: "okur@example.com", SubscribedAt: "2025-08-30T12:00:00Z"}
	assert.Equal(t, in, DecodeSubscriber(EncodeSubscriber(in)))
}

func TestDraftRoundTrip(t *testing.T) {
	in := Draft{
		ID:        DraftKey("42", "admin"),
		ArticleID: "42",
		UserID:    "admin",
		FormData:  map[string]any{"title": "taslak"},
		SavedAt:   "2025-08-30T12:00:00Z",
		ExpiresAt: "2025-09-06T12:00:00Z",
	}

	out := DecodeDraft(EncodeDraft(in))
	require.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.FormData["title"], out.FormData["title"])
	assert.Equal(t, in.ExpiresAt, out.ExpiresAt)
}

func TestDraftKey(t *testing.T) {
	assert.Equal(t, "42_autosave", DraftKey("42", "admin"))
	assert.Equal(t, "new_admin_autosave", DraftKey("", "admin"))
}
