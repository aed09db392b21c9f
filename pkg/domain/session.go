package domain

import (
	"strings"
	"time"
)

// Session represents an authenticated client session.
type Session struct {
	Token     string    `json:"token"`
	Type      string    `json:"type,omitempty"`       // "Bearer"
	ExpiresIn int64     `json:"expires_in,omitempty"` // seconds, as reported by the server
	IssuedAt  time.Time `json:"issued_at"`
	Subject   string    `json:"subject,omitempty"` // JWT "sub" claim when the token is a JWT
}

// Valid reports whether the session carries a token. No expiry check is
// made: a token is valid until the server rejects it.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.Token) != ""
}

// ExpiresAt returns IssuedAt + ExpiresIn, or the zero time when either is unknown.
func (s Session) ExpiresAt() time.Time {
	if s.ExpiresIn <= 0 || s.IssuedAt.IsZero() {
		return time.Time{}
	}
	return s.IssuedAt.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// Remaining returns the lifetime left at now, clamped at zero.
// Returns 0 when the lifetime is unknown.
func (s Session) Remaining(now time.Time) time.Duration {
	exp := s.ExpiresAt()
	if exp.IsZero() || !exp.After(now) {
		return 0
	}
	return exp.Sub(now)
}
