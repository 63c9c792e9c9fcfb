// Package tokenstore manages bearer tokens for the external services:
// cached reuse while fresh, rate-limit-aware refresh, and pluggable
// persistence so tests can substitute an in-memory store.
package tokenstore

import (
	"encoding/json"
	"time"
)

// MaxAge is how long a minted token is considered reusable. It sits just
// under the services' one-hour token lifetime so a token is never used
// right at its expiry edge.
const MaxAge = 3500 * time.Second

// Token is a bearer token together with the time it was minted.
type Token struct {
	AccessToken string
	IssuedAt    time.Time
}

// FreshAt reports whether the token is still reusable at the given time.
func (t Token) FreshAt(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	return now.Sub(t.IssuedAt) < MaxAge
}

// persistedToken is the on-disk/on-wire cache shape: the issue time is
// stored as a unix timestamp under the "timestamp" key.
type persistedToken struct {
	AccessToken string `json:"access_token"`
	Timestamp   int64  `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler.
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(persistedToken{
		AccessToken: t.AccessToken,
		Timestamp:   t.IssuedAt.Unix(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Token) UnmarshalJSON(data []byte) error {
	var p persistedToken
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	t.AccessToken = p.AccessToken
	t.IssuedAt = time.Unix(p.Timestamp, 0)
	return nil
}
