package clicks

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/linkcycle/internal/shortener"
	"go.uber.org/zap"
)

// Recorder is the consume side of the click log: it persists raw click
// events and keeps the per-link counter in step. The two writes are not
// atomic across each other; both are eventually consistent once the event
// is acknowledged.
type Recorder struct {
	store  shortener.Store
	logger *zap.Logger
}

// NewRecorder creates a recorder over the store.
func NewRecorder(store shortener.Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Handle persists one clicked event. Returning an error nacks the message
// so the transport redelivers it.
func (r *Recorder) Handle(ctx context.Context, event *LinkClickedEvent) error {
	click := shortener.NewClickEvent(event.LinkID, event.ClickedAt, event.UserAgent, event.ClientIP, event.Referrer)

	if err := r.store.AppendClick(ctx, click); err != nil {
		return fmt.Errorf("append click for %s: %w", event.Code, err)
	}

	if err := r.store.IncrementClicks(ctx, event.LinkID); err != nil {
		// The link may have been purged or compressed between the redirect
		// and this write; the raw event still stands.
		if errors.Is(err, shortener.ErrNotFound) {
			r.logger.Debug("click recorded for vanished link",
				zap.String("code", event.Code),
			)

			return nil
		}

		return fmt.Errorf("increment clicks for %s: %w", event.Code, err)
	}

	return nil
}
