package clicks

import (
	"github.com/serroba/linkcycle/internal/messaging"
)

// Ledger is the publish side of the click log.
type Ledger struct {
	publish messaging.Publish[LinkClickedEvent]
}

// NewLedger creates a ledger over a typed publish function.
func NewLedger(publish messaging.Publish[LinkClickedEvent]) *Ledger {
	return &Ledger{publish: publish}
}

// Record appends a click to the ledger. The write is acknowledged by the
// transport, not by the store; the recorder persists it asynchronously.
func (l *Ledger) Record(event *LinkClickedEvent) error {
	return l.publish(event)
}
