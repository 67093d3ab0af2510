package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/linkcycle/internal/shortener"
	"go.uber.org/zap"
)

// Purger removes links whose expiry has passed, preserving the history of
// any that accrued clicks.
type Purger struct {
	store  shortener.Store
	logger *zap.Logger
}

// NewPurger creates a new retention purger.
func NewPurger(store shortener.Store, logger *zap.Logger) *Purger {
	return &Purger{store: store, logger: logger}
}

// PurgeExpired removes all links expired at now and returns how many were
// removed. Archive creation and row deletion are applied as one unit of
// work: on failure the store is left untouched for the whole batch.
func (p *Purger) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := p.store.ExpiredLinks(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("select expired links: %w", err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	plan, err := PlanPurge(expired, now)
	if err != nil {
		return 0, fmt.Errorf("plan purge: %w", err)
	}

	err = p.store.WithinTx(ctx, func(tx shortener.Store) error {
		for _, archive := range plan.Archives {
			if err := tx.CreateArchive(ctx, archive); err != nil {
				return fmt.Errorf("archive link %s: %w", archive.Code, err)
			}
		}

		return tx.DeleteLinks(ctx, plan.Remove)
	})
	if err != nil {
		return 0, fmt.Errorf("apply purge: %w", err)
	}

	p.logger.Info("purged expired links",
		zap.Int("purged", len(plan.Remove)),
		zap.Int("archived", len(plan.Archives)),
	)

	return len(plan.Remove), nil
}
