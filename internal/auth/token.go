// Package auth issues and verifies the short-lived bearer tokens gating
// the admin routes. A token is "<unix-ms>.<hex hmac-sha256 of the
// timestamp>"; it carries no claims beyond its issuance time.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

type Guard struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewGuard(secret string, maxAge time.Duration) *Guard {
	return &Guard{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Issue creates a token stamped with the current time.
func (g *Guard) Issue() string {
	ts := strconv.FormatInt(g.now().UnixMilli(), 10)
	return ts + "." + g.sign(ts)
}

// Verify recomputes the signature over the embedded timestamp, compares it
// in constant time and rejects tokens from the future or older than the
// configured max age. Malformed tokens are simply invalid, never trusted
// partially.
func (g *Guard) Verify(token string) bool {
	ts, sigHex, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(g.sign(ts))
	if err != nil {
		return false
	}
	if !hmac.Equal(sig, expected) {
		return false
	}

	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	age := g.now().UnixMilli() - issued
	return age >= 0 && age < g.maxAge.Milliseconds()
}

func (g *Guard) sign(ts string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(ts))
	return hex.EncodeToString(mac.Sum(nil))
}
