package shortener

import (
	"time"

	"github.com/google/uuid"
)

// ClickEvent represents a single redirect hit on a link. Events are
// immutable once recorded; they are destroyed only when subsumed into a
// ClickSummary by the aggregator.
type ClickEvent struct {
	ID        uuid.UUID
	LinkID    uuid.UUID
	ClickedAt time.Time
	UserAgent string
	ClientIP  string
	Referrer  string
}

// NewClickEvent creates a click event for the given link.
func NewClickEvent(linkID uuid.UUID, clickedAt time.Time, userAgent, clientIP, referrer string) *ClickEvent {
	return &ClickEvent{
		ID:        uuid.New(),
		LinkID:    linkID,
		ClickedAt: clickedAt,
		UserAgent: userAgent,
		ClientIP:  clientIP,
		Referrer:  referrer,
	}
}
