package lifecycle_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/serroba/linkcycle/internal/lifecycle"
	"github.com/serroba/linkcycle/internal/shortener"
	"github.com/serroba/linkcycle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAggregateOlderThan(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	age := 30 * 24 * time.Hour

	t.Run("summarizes exactly the old events", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := seedLink(t, s, "abc123", nil, now.Add(-60*24*time.Hour))

		oldest := now.Add(-50 * 24 * time.Hour)

		// 7 events older than the cutoff, 3 newer.
		for i := range 7 {
			click := shortener.NewClickEvent(link.ID, oldest.Add(time.Duration(i)*24*time.Hour), "Mozilla/5.0 Chrome/120", "10.0.0.1", "https://news.example/page")
			require.NoError(t, s.AppendClick(ctx, click))
		}

		for i := range 3 {
			click := shortener.NewClickEvent(link.ID, now.Add(-time.Duration(i+1)*time.Hour), "", "", "")
			require.NoError(t, s.AppendClick(ctx, click))
		}

		aggregator := lifecycle.NewAggregator(s, zap.NewNop())

		count, err := aggregator.AggregateOlderThan(ctx, now, age)

		require.NoError(t, err)
		assert.Equal(t, 7, count)

		remaining, err := s.CountClicks(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, remaining, "recent events stay as raw rows")

		summaries := s.Summaries()
		require.Len(t, summaries, 1)

		summary := summaries[0]
		assert.Equal(t, link.ID, summary.LinkID)
		assert.Equal(t, 7, summary.ClickCount)
		assert.Equal(t, oldest, summary.PeriodStart)
		assert.Equal(t, oldest.Add(6*24*time.Hour), summary.PeriodEnd)
		assert.Equal(t, 7, summary.UserAgents["chrome"])
		assert.Equal(t, 7, summary.ClientIPs["10.0.0.1"])
		assert.Equal(t, 7, summary.Referrers["news.example"])
	})

	t.Run("links without old events are skipped", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := seedLink(t, s, "abc123", nil, now)

		require.NoError(t, s.AppendClick(ctx, shortener.NewClickEvent(link.ID, now.Add(-time.Hour), "", "", "")))

		aggregator := lifecycle.NewAggregator(s, zap.NewNop())

		count, err := aggregator.AggregateOlderThan(ctx, now, age)

		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, s.Summaries(), "no empty summaries")
	})

	t.Run("aggregates each link independently", func(t *testing.T) {
		s := store.NewMemoryStore()
		old := now.Add(-40 * 24 * time.Hour)

		for i := range 3 {
			link := seedLink(t, s, shortener.Code(fmt.Sprintf("link%d", i)), nil, old)

			for j := range i + 1 {
				click := shortener.NewClickEvent(link.ID, old.Add(time.Duration(j)*time.Hour), "", "", "")
				require.NoError(t, s.AppendClick(ctx, click))
			}
		}

		aggregator := lifecycle.NewAggregator(s, zap.NewNop())

		count, err := aggregator.AggregateOlderThan(ctx, now, age)

		require.NoError(t, err)
		assert.Equal(t, 6, count) // 1+2+3
		assert.Len(t, s.Summaries(), 3, "one summary per link per run")
	})

	t.Run("single click still yields a valid window", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := seedLink(t, s, "abc123", nil, now.Add(-60*24*time.Hour))

		clickedAt := now.Add(-40 * 24 * time.Hour)
		require.NoError(t, s.AppendClick(ctx, shortener.NewClickEvent(link.ID, clickedAt, "", "", "")))

		aggregator := lifecycle.NewAggregator(s, zap.NewNop())

		count, err := aggregator.AggregateOlderThan(ctx, now, age)

		require.NoError(t, err)
		assert.Equal(t, 1, count)

		summaries := s.Summaries()
		require.Len(t, summaries, 1)
		assert.True(t, summaries[0].PeriodEnd.After(summaries[0].PeriodStart))
	})
}
