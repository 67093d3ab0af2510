// Package clicks implements the append-only click ledger. The redirect
// path publishes a LinkClickedEvent; the ledger consumer persists the raw
// ClickEvent row and bumps the link's counter. Delivery is at-least-once,
// so a replayed event may double-count a click; that is an accepted
// limitation of the ledger, not corrected by reconciliation.
package clicks

import (
	"time"

	"github.com/google/uuid"
)

// TopicLinkClicked is the ledger topic for redirect hits.
const TopicLinkClicked = "link.clicked"

// LinkClickedEvent is emitted on every successful redirect.
type LinkClickedEvent struct {
	LinkID    uuid.UUID `json:"linkId"`
	Code      string    `json:"code"`
	ClickedAt time.Time `json:"clickedAt"`
	UserAgent string    `json:"userAgent,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
}
