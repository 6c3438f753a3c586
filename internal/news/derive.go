package news

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Istanbul offset, the site's editorial timezone for publication stamps.
var trtZone = time.FixedZone("TRT", 3*60*60)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugCollapse = regexp.MustCompile(`-+`)
)

var turkishASCII = strings.NewReplacer(
	"ğ", "g", "Ğ", "g", "ü", "u", "Ü", "u", "ş", "s", "Ş", "s",
	"ı", "i", "İ", "i", "ö", "o", "Ö", "o", "ç", "c", "Ç", "c",
)

// Slugify derives a URL-safe slug, transliterating Turkish characters the
// same way the public site builds its article URLs.
func Slugify(s string) string {
	s = turkishASCII.Replace(s)
	s = strings.ToLower(s)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ReadingTime estimates reading minutes at 200 words per minute, never
// below one minute.
func ReadingTime(body string) int {
	words := len(strings.Fields(body))
	if words == 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(float64(words)/200)))
}
