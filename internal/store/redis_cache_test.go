//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkcycle/internal/shortener"
	"github.com/serroba/linkcycle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func TestCachedStoreIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("create populates the cache", func(t *testing.T) {
		cached := store.NewCachedStore(store.NewMemoryStore(), client, time.Minute)

		link := newTestLink(t, "rctestcreate1")
		defer client.Del(ctx, "link:"+string(link.Code))

		require.NoError(t, cached.CreateLink(ctx, link))

		fields, err := client.HGetAll(ctx, "link:"+string(link.Code)).Result()
		require.NoError(t, err)
		assert.Equal(t, link.OriginalURL, fields["original_url"])
	})

	t.Run("cache serves reads when the store entry is gone", func(t *testing.T) {
		inner := store.NewMemoryStore()
		cached := store.NewCachedStore(inner, client, time.Minute)

		link := newTestLink(t, "rctestread1")
		defer client.Del(ctx, "link:"+string(link.Code))

		require.NoError(t, cached.CreateLink(ctx, link))

		// Delete from the backing store only; the cache still has it.
		require.NoError(t, inner.DeleteLinks(ctx, []uuid.UUID{link.ID}))

		got, err := cached.LinkByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
	})

	t.Run("delete invalidates the cache", func(t *testing.T) {
		cached := store.NewCachedStore(store.NewMemoryStore(), client, time.Minute)

		link := newTestLink(t, "rctestdelete1")
		require.NoError(t, cached.CreateLink(ctx, link))

		require.NoError(t, cached.DeleteLinks(ctx, []uuid.UUID{link.ID}))

		_, err := cached.LinkByCode(ctx, link.Code)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("expiry survives the cache round trip", func(t *testing.T) {
		cached := store.NewCachedStore(store.NewMemoryStore(), client, time.Minute)

		expiresAt := now.Add(time.Hour)
		link, err := shortener.NewLink("https://example.com/ttl", "rctestttl1", &expiresAt, now)
		require.NoError(t, err)
		defer client.Del(ctx, "link:"+string(link.Code))

		require.NoError(t, cached.CreateLink(ctx, link))

		got, err := cached.LinkByCode(ctx, link.Code)
		require.NoError(t, err)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, got.ExpiresAt.Equal(expiresAt))
	})
}
