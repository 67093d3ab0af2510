package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkcycle/internal/shortener"
	"go.uber.org/zap"
)

// Aggregator bounds the growth of the raw click log by collapsing old
// events into per-link statistical summaries.
type Aggregator struct {
	store  shortener.Store
	logger *zap.Logger
}

// NewAggregator creates a new click aggregator.
func NewAggregator(store shortener.Store, logger *zap.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// AggregateOlderThan summarizes every click event older than now-age and
// deletes the summarized raw rows. Each link is processed in its own
// transaction, so a failure on one link does not block the others. Returns
// the total number of raw events subsumed.
func (a *Aggregator) AggregateOlderThan(ctx context.Context, now time.Time, age time.Duration) (int, error) {
	cutoff := now.Add(-age)

	linkIDs, err := a.store.LinkIDsWithClicksBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("select links with old clicks: %w", err)
	}

	total := 0

	var firstErr error

	for _, linkID := range linkIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := a.aggregateLink(ctx, linkID, cutoff)
		if err != nil {
			a.logger.Error("failed to aggregate clicks for link",
				zap.Stringer("linkId", linkID),
				zap.Error(err),
			)

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		total += n
	}

	if total > 0 {
		a.logger.Info("aggregated old click events", zap.Int("events", total))
	}

	return total, firstErr
}

func (a *Aggregator) aggregateLink(ctx context.Context, linkID uuid.UUID, cutoff time.Time) (int, error) {
	events, err := a.store.ClicksBefore(ctx, linkID, cutoff)
	if err != nil {
		return 0, err
	}

	// Never emit empty summaries.
	if len(events) == 0 {
		return 0, nil
	}

	summary, err := SummarizeClicks(linkID, events)
	if err != nil {
		return 0, err
	}

	err = a.store.WithinTx(ctx, func(tx shortener.Store) error {
		if err := tx.CreateSummary(ctx, summary); err != nil {
			return err
		}

		_, err := tx.DeleteClicksBefore(ctx, linkID, cutoff)

		return err
	})
	if err != nil {
		return 0, err
	}

	return len(events), nil
}
