// Package record holds the canonical content model and the codec between
// typed records and the flat field maps the storage backends exchange.
package record

// Collection names shared by every backend. The relational adapter maps
// them to table names, the document adapter to collections, the flat-file
// adapter to one JSON file each.
const (
	CollectionNews        = "news"
	CollectionPolls       = "polls"
	CollectionAds         = "ads"
	CollectionSubscribers = "subscribers"
	CollectionDrafts      = "drafts"
)

// Categories is the fixed editorial category set. Free text is tolerated
// on stored records but the admin UI only offers these.
var Categories = []string{
	"Gündem", "Ekonomi", "Spor", "Magazin",
	"Kültür-Sanat", "Teknoloji", "Yaşam", "Üzüm & Bağcılık",
}

// AdSlotNames is the fixed set of placements an ad can occupy.
var AdSlotNames = []string{"ana-1", "ana-2", "sidebar-1"}

const (
	DefaultAuthor              = "Editör"
	DefaultCategory            = "Gündem"
	DefaultCoverImage          = "https://images.unsplash.com/photo-1495020689067-958852a7765e?w=900&h=500&fit=crop"
	DefaultBreakingWindowHours = 6
)

// Video is an optional embedded video reference on an article.
type Video struct {
	Kind      string `json:"kind"`
	URL       string `json:"url"`
	EmbedURL  string `json:"embedUrl"`
	Thumbnail string `json:"thumbnail"`
}

// Article is the central entity. Timestamps are ISO-8601 strings; the empty
// string is the absent-value sentinel for optional string fields.
type Article struct {
	ID                  string `json:"id"`
	Slug                string `json:"slug"`
	Category            string `json:"category"`
	Title               string `json:"title"`
	Excerpt             string `json:"excerpt"`
	BodyHTML            string `json:"bodyHtml"`
	Author              string `json:"author"`
	CoverImage          string `json:"coverImage"`
	PublishedAt         string `json:"publishedAt,omitempty"`
	ReadingTimeMinutes  int    `json:"readingTimeMinutes"`
	ViewCount           int    `json:"viewCount"`
	IsPublished         bool   `json:"isPublished"`
	IsBreaking          bool   `json:"isBreaking"`
	IsFeatured          bool   `json:"isFeatured"`
	BreakingWindowHours int    `json:"breakingWindowHours"`
	// BreakingStartedAt is set the instant IsBreaking flips false->true and
	// cleared when it flips back. Present iff IsBreaking is true.
	BreakingStartedAt string `json:"breakingStartedAt,omitempty"`
	Video             *Video `json:"video,omitempty"`
}

type PollOption struct {
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

// Poll is a reader survey. At most one poll is active at a time; the
// content service enforces that on writes.
type Poll struct {
	ID         string       `json:"id"`
	Question   string       `json:"question"`
	Options    []PollOption `json:"options"`
	IsActive   bool         `json:"isActive"`
	TotalVotes int          `json:"totalVotes"`
	StartDate  string       `json:"startDate,omitempty"`
	EndDate    string       `json:"endDate,omitempty"`
	// VotersSeen holds one fingerprint per voter; a fingerprint may appear
	// at most once.
	VotersSeen []string `json:"votersSeen,omitempty"`
}

// AdSlot is an advertisement placement. SlotName is the natural key:
// writing the same slot twice updates in place.
type AdSlot struct {
	ID       string `json:"id"`
	SlotName string `json:"slotName"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	LinkURL  string `json:"linkUrl"`
	IsActive bool   `json:"isActive"`
}

type Subscriber struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	SubscribedAt string `json:"subscribedAt"`
}

// Draft is an autosaved snapshot of an in-progress edit, keyed by
// (article id or "new", editing user id). A newer save for the same key
// overwrites the previous one.
type Draft struct {
	ID        string         `json:"id"`
	ArticleID string         `json:"articleId,omitempty"` // "" while the article has not been created yet
	UserID    string         `json:"userId"`
	FormData  map[string]any `json:"formData"`
	SavedAt   string         `json:"savedAt"`
	ExpiresAt string         `json:"expiresAt"`
}

// DraftKey builds the stable identifier a draft is stored under.
func DraftKey(articleID, userID string) string {
	if articleID == "" {
		return "new_" + userID + "_autosave"
	}
	return articleID + "_autosave"
}
