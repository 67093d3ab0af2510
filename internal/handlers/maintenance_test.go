package handlers_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/linkcycle/internal/handlers"
	"github.com/serroba/linkcycle/internal/lifecycle"
	"github.com/serroba/linkcycle/internal/shortener"
	"github.com/serroba/linkcycle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMaintenanceHandler(s shortener.Store) *handlers.MaintenanceHandler {
	cfg := lifecycle.DefaultConfig()
	scheduler := lifecycle.NewScheduler(s, cfg, zap.NewNop())

	return handlers.NewMaintenanceHandler(scheduler, cfg.AggregateAge, cfg.CompressAge, zap.NewNop())
}

func TestMaintenance(t *testing.T) {
	ctx := context.Background()

	t.Run("purge removes expired links", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		handler := newMaintenanceHandler(memStore)

		expiresAt := time.Now().Add(-time.Hour)
		link, err := shortener.NewLink(testURL, "mntexpired1", &expiresAt, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)
		require.NoError(t, memStore.CreateLink(ctx, link))

		resp, err := handler.Purge(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Body.Purged)

		_, err = memStore.LinkByCode(ctx, link.Code)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("aggregate rolls up old clicks", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		handler := newMaintenanceHandler(memStore)

		link, err := shortener.NewLink(testURL, "mntagg1", nil, time.Now().Add(-60*24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, memStore.CreateLink(ctx, link))

		old := time.Now().Add(-45 * 24 * time.Hour)
		for range 3 {
			event := shortener.NewClickEvent(link.ID, old, "Mozilla/5.0 Chrome/120", "10.0.0.1", "")
			require.NoError(t, memStore.AppendClick(ctx, event))
		}

		req := &handlers.AggregateRequest{}
		req.Body.Days = 30

		resp, err := handler.Aggregate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Body.Aggregated)

		count, err := memStore.CountSummaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("compress archives dormant links", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		handler := newMaintenanceHandler(memStore)

		link, err := shortener.NewLink(testURL, "mntdormant1", nil, time.Now().Add(-200*24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, memStore.CreateLink(ctx, link))

		req := &handlers.CompressRequest{}
		req.Body.Days = 90

		resp, err := handler.Compress(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Body.Compressed)

		_, err = memStore.ArchiveByCode(ctx, link.Code)
		require.NoError(t, err)
	})

	t.Run("stats reflect store contents", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		handler := newMaintenanceHandler(memStore)

		link, err := shortener.NewLink(testURL, "mntstats1", nil, time.Now())
		require.NoError(t, err)
		require.NoError(t, memStore.CreateLink(ctx, link))

		resp, err := handler.Stats(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Body.TotalLinks)
		assert.Equal(t, resp.Body.LinkStorageBytes+resp.Body.ClickStorageBytes, resp.Body.TotalStorageBytes)
	})
}
