package shortener

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Code represents a short URL code.
type Code string

// codePattern matches valid short codes: 1-20 URL-safe characters.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// Valid reports whether the code matches the allowed alphabet and length.
func (c Code) Valid() bool {
	return codePattern.MatchString(string(c))
}

// Link represents a live shortened URL entity.
type Link struct {
	ID          uuid.UUID
	Code        Code
	OriginalURL string
	CreatedAt   time.Time
	ExpiresAt   *time.Time // nil means the link never expires
	ClickCount  int
	Active      bool
}

// NewLink creates a new active link with a fresh identity.
func NewLink(originalURL string, code Code, expiresAt *time.Time, now time.Time) (*Link, error) {
	if originalURL == "" {
		return nil, errors.New("original url cannot be empty")
	}

	if !code.Valid() {
		return nil, ErrInvalidCode
	}

	return &Link{
		ID:          uuid.New(),
		Code:        code,
		OriginalURL: originalURL,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		ClickCount:  0,
		Active:      true,
	}, nil
}

// Expired reports whether the link's expiry has passed.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// Resolvable reports whether redirect lookups may resolve this link.
// Inactive links are never resolvable, even before their expiry.
func (l *Link) Resolvable(now time.Time) bool {
	return l.Active && !l.Expired(now)
}

// Deactivate excludes the link from redirect resolution without deleting it.
func (l *Link) Deactivate() {
	l.Active = false
}
