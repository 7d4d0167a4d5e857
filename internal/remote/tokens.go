package remote

import (
	"fmt"
	"time"
)

// ExpirationLayout is the timestamp layout stored alongside a token
// set: RFC 3339 date and time with no zone designator and no
// sub-second component. The wall clock is always UTC.
const ExpirationLayout = "2006-01-02T15:04:05"

// TokenSet is a complete grant from the remote token endpoint.
//
// Exactly one token set is stored at a time; saving a new one replaces
// the previous one. AccessToken and RefreshToken are credentials and
// are never serialised to API clients or written to logs.
type TokenSet struct {
	ID           string    `json:"id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	Expiration   string    `json:"expiration"`
	CreatedAt    time.Time `json:"created_at"`
}

// FormatExpiration renders an instant in the stored expiration layout.
// The instant is converted to UTC and truncated to a whole second, so
// 2021-01-01T01:01:01.001 renders as "2021-01-01T01:01:01".
func FormatExpiration(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(ExpirationLayout)
}

// ExpiresAt parses the stored expiration back into an instant in UTC.
func (t *TokenSet) ExpiresAt() (time.Time, error) {
	at, err := time.Parse(ExpirationLayout, t.Expiration)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing token expiration %q: %w", t.Expiration, err)
	}
	return at.UTC(), nil
}

// Expired reports whether the access token has expired at the given
// instant. An unparseable expiration counts as expired so a corrupt
// row forces a refresh rather than a silent 401.
func (t *TokenSet) Expired(now time.Time) bool {
	at, err := t.ExpiresAt()
	if err != nil {
		return true
	}
	return !now.UTC().Before(at)
}
