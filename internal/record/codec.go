package record

// Fields is the flat representation a backend adapter stores and returns.
// Keys are the canonical camelCase field names; "id" is always a string.
// Optional fields are simply omitted from the map when absent, which every
// backend translates to its own absent-value sentinel (SQL NULL, missing
// document field, or a dropped JSON key).
type Fields = map[string]any

// EncodeArticle converts an article to its storage field map. Absent
// optional fields (empty publishedAt, empty breakingStartedAt, nil video)
// are omitted rather than written as empty values.
func EncodeArticle(a Article) Fields {
	f := Fields{
		"id":                  a.ID,
		"slug":                a.Slug,
		"category":            a.Category,
		"title":               a.Title,
		"excerpt":             a.Excerpt,
		"bodyHtml":            a.BodyHTML,
		"author":              a.Author,
		"coverImage":          a.CoverImage,
		"readingTimeMinutes":  a.ReadingTimeMinutes,
		"viewCount":           a.ViewCount,
		"isPublished":         a.IsPublished,
		"isBreaking":          a.IsBreaking,
		"isFeatured":          a.IsFeatured,
		"breakingWindowHours": a.BreakingWindowHours,
	}
	if a.PublishedAt != "" {
		f["publishedAt"] = a.PublishedAt
	}
	if a.BreakingStartedAt != "" {
		f["breakingStartedAt"] = a.BreakingStartedAt
	}
	if a.Video != nil {
		f["video"] = Fields{
			"kind":      a.Video.Kind,
			"url":       a.Video.URL,
			"embedUrl":  a.Video.EmbedURL,
			"thumbnail": a.Video.Thumbnail,
		}
	}
	return f
}

// DecodeArticle is the inverse of EncodeArticle. It applies the defaults
// the CRUD layer guarantees: author falls back to the sentinel editor name,
// breakingWindowHours to 6 and readingTimeMinutes is clamped to >= 1.
func DecodeArticle(f Fields) Article {
	a := Article{
		ID:                  asString(f["id"]),
		Slug:                asString(f["slug"]),
		Category:            asString(f["category"]),
		Title:               asString(f["title"]),
		Excerpt:             asString(f["excerpt"]),
		BodyHTML:            asString(f["bodyHtml"]),
		Author:              asString(f["author"]),
		CoverImage:          asString(f["coverImage"]),
		PublishedAt:         asString(f["publishedAt"]),
		ReadingTimeMinutes:  asInt(f["readingTimeMinutes"]),
		ViewCount:           asInt(f["viewCount"]),
		IsPublished:         asBool(f["isPublished"]),
		IsBreaking:          asBool(f["isBreaking"]),
		IsFeatured:          asBool(f["isFeatured"]),
		BreakingWindowHours: asInt(f["breakingWindowHours"]),
		BreakingStartedAt:   asString(f["breakingStartedAt"]),
	}
	if a.Author == "" {
		a.Author = DefaultAuthor
	}
	if a.BreakingWindowHours == 0 {
		a.BreakingWindowHours = DefaultBreakingWindowHours
	}
	if a.ReadingTimeMinutes < 1 {
		a.ReadingTimeMinutes = 1
	}
	if v, ok := f["video"]; ok {
		if m := asFields(v); m != nil {
			a.Video = &Video{
				Kind:      asString(m["kind"]),
				URL:       asString(m["url"]),
				EmbedURL:  asString(m["embedUrl"]),
				Thumbnail: asString(m["thumbnail"]),
			}
		}
	}
	return a
}

func EncodePoll(p Poll) Fields {
	opts := make([]any, 0, len(p.Options))
	for _, o := range p.Options {
		opts = append(opts, Fields{"text": o.Text, "voteCount": o.VoteCount})
	}
	voters := make([]any, 0, len(p.VotersSeen))
	for _, v := range p.VotersSeen {
		voters = append(voters, v)
	}
	f := Fields{
		"id":         p.ID,
		"question":   p.Question,
		"options":    opts,
		"isActive":   p.IsActive,
		"totalVotes": p.TotalVotes,
		"votersSeen": voters,
	}
	if p.StartDate != "" {
		f["startDate"] = p.StartDate
	}
	if p.EndDate != "" {
		f["endDate"] = p.EndDate
	}
	return f
}

func DecodePoll(f Fields) Poll {
	p := Poll{
		ID:         asString(f["id"]),
		Question:   asString(f["question"]),
		IsActive:   asBool(f["isActive"]),
		TotalVotes: asInt(f["totalVotes"]),
		StartDate:  asString(f["startDate"]),
		EndDate:    asString(f["endDate"]),
	}
	for _, raw := range asSlice(f["options"]) {
		m := asFields(raw)
		if m == nil {
			continue
		}
		p.Options = append(p.Options, PollOption{
			Text:      asString(m["text"]),
			VoteCount: asInt(m["voteCount"]),
		})
	}
	for _, raw := range asSlice(f["votersSeen"]) {
		p.VotersSeen = append(p.VotersSeen, asString(raw))
	}
	return p
}

func EncodeAdSlot(a AdSlot) Fields {
	return Fields{
		"id":       a.ID,
		"slotName": a.SlotName,
		"title":    a.Title,
		"image":    a.Image,
		"linkUrl":  a.LinkURL,
		"isActive": a.IsActive,
	}
}

func DecodeAdSlot(f Fields) AdSlot {
	a := AdSlot{
		ID:       asString(f["id"]),
		SlotName: asString(f["slotName"]),
		Title:    asString(f["title"]),
		Image:    asString(f["image"]),
		LinkURL:  asString(f["linkUrl"]),
		IsActive: asBool(f["isActive"]),
	}
	if a.Title == "" {
		a.Title = a.SlotName
	}
	return a
}

func EncodeSubscriber(s Subscriber) Fields {
	return Fields{
		"id":           s.ID,
		"email":        s.Email,
		"subscribedAt": s.SubscribedAt,
	}
}

func DecodeSubscriber(f Fields) Subscriber {
	return Subscriber{
		ID:           asString(f["id"]),
		Email:        asString(f["email"]),
		SubscribedAt: asString(f["subscribedAt"]),
	}
}

func EncodeDraft(d Draft) Fields {
	f := Fields{
		"id":        d.ID,
		"userId":    d.UserID,
		"formData":  d.FormData,
		"savedAt":   d.SavedAt,
		"expiresAt": d.ExpiresAt,
	}
	if d.ArticleID != "" {
		f["articleId"] = d.ArticleID
	}
	return f
}

func DecodeDraft(f Fields) Draft {
	return Draft{
		ID:        asString(f["id"]),
		ArticleID: asString(f["articleId"]),
		UserID:    asString(f["userId"]),
		FormData:  asFields(f["formData"]),
		SavedAt:   asString(f["savedAt"]),
		ExpiresAt: asString(f["expiresAt"]),
	}
}

// Coercion helpers. Numbers arrive as int from in-process callers, as
// float64 from encoding/json, and as int32/int64 from the mongo driver,
// so every accessor accepts all of them.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	}
	return 0
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, 0, len(s))
		for _, e := range s {
			out = append(out, e)
		}
		return out
	}
	return nil
}

func asFields(v any) Fields {
	m, _ := v.(map[string]any)
	return m
}
