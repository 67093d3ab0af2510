package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/linkcycle/internal/shortener"
	"go.uber.org/zap"
)

// Compressor shrinks storage of long-dormant link bodies without erasing
// their identity. It runs independently of expiry-based purging; whichever
// policy reaches a link first performs the transition.
type Compressor struct {
	store  shortener.Store
	logger *zap.Logger
}

// NewCompressor creates a new body compressor.
func NewCompressor(store shortener.Store, logger *zap.Logger) *Compressor {
	return &Compressor{store: store, logger: logger}
}

// CompressOlderThan archives every link created before now-age that has no
// click event after that cutoff, deleting the live rows, and returns how
// many links were compressed. Archives are created before rows are removed
// within one unit of work.
func (c *Compressor) CompressOlderThan(ctx context.Context, now time.Time, age time.Duration) (int, error) {
	cutoff := now.Add(-age)

	dormant, err := c.store.DormantLinks(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("select dormant links: %w", err)
	}

	if len(dormant) == 0 {
		return 0, nil
	}

	plan, err := PlanCompression(dormant, now)
	if err != nil {
		return 0, fmt.Errorf("plan compression: %w", err)
	}

	err = c.store.WithinTx(ctx, func(tx shortener.Store) error {
		for _, archive := range plan.Archives {
			if err := tx.CreateArchive(ctx, archive); err != nil {
				return fmt.Errorf("archive link %s: %w", archive.Code, err)
			}
		}

		return tx.DeleteLinks(ctx, plan.Remove)
	})
	if err != nil {
		return 0, fmt.Errorf("apply compression: %w", err)
	}

	c.logger.Info("compressed dormant links", zap.Int("compressed", len(plan.Remove)))

	return len(plan.Remove), nil
}
