package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkcycle/internal/shortener"
	"github.com/serroba/linkcycle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(t *testing.T, url string, code shortener.Code, expiresAt *time.Time, createdAt time.Time) *shortener.Link {
	t.Helper()

	link, err := shortener.NewLink(url, code, expiresAt, createdAt)
	require.NoError(t, err)

	return link
}

func TestMemoryStoreLinks(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("create and fetch by code and id", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink(t, "https://example.com", "abc123", nil, now)

		require.NoError(t, s.CreateLink(ctx, link))

		byCode, err := s.LinkByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, link.ID, byCode.ID)

		byID, err := s.LinkByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, link.Code, byID.Code)
	})

	t.Run("create rejects duplicate code", func(t *testing.T) {
		s := store.NewMemoryStore()

		require.NoError(t, s.CreateLink(ctx, newLink(t, "https://a.example", "abc123", nil, now)))

		err := s.CreateLink(ctx, newLink(t, "https://b.example", "abc123", nil, now))

		assert.ErrorIs(t, err, shortener.ErrCodeTaken)

		inUse, err := s.CodeInUse(ctx, "abc123")
		require.NoError(t, err)
		assert.True(t, inUse)
	})

	t.Run("unknown code returns not found", func(t *testing.T) {
		s := store.NewMemoryStore()

		_, err := s.LinkByCode(ctx, "missing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("increment clicks is monotonic", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink(t, "https://example.com", "abc123", nil, now)
		require.NoError(t, s.CreateLink(ctx, link))

		for range 3 {
			require.NoError(t, s.IncrementClicks(ctx, link.ID))
		}

		got, err := s.LinkByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.ClickCount)
	})

	t.Run("delete releases the code", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink(t, "https://example.com", "abc123", nil, now)
		require.NoError(t, s.CreateLink(ctx, link))

		require.NoError(t, s.DeleteLinks(ctx, []uuid.UUID{link.ID}))

		inUse, err := s.CodeInUse(ctx, "abc123")
		require.NoError(t, err)
		assert.False(t, inUse)
	})
}

func TestMemoryStoreRangeQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("expired links", func(t *testing.T) {
		s := store.NewMemoryStore()

		past := now.Add(-time.Hour)
		future := now.Add(time.Hour)

		require.NoError(t, s.CreateLink(ctx, newLink(t, "https://a.example", "aaa", &past, now.Add(-2*time.Hour))))
		require.NoError(t, s.CreateLink(ctx, newLink(t, "https://b.example", "bbb", &future, now)))
		require.NoError(t, s.CreateLink(ctx, newLink(t, "https://c.example", "ccc", nil, now)))

		expired, err := s.ExpiredLinks(ctx, now)

		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, shortener.Code("aaa"), expired[0].Code)
	})

	t.Run("dormant links exclude recently clicked", func(t *testing.T) {
		s := store.NewMemoryStore()
		cutoff := now.Add(-90 * 24 * time.Hour)

		old := newLink(t, "https://old.example", "old1", nil, now.Add(-100*24*time.Hour))
		clicked := newLink(t, "https://clicked.example", "old2", nil, now.Add(-100*24*time.Hour))
		fresh := newLink(t, "https://fresh.example", "new1", nil, now)

		require.NoError(t, s.CreateLink(ctx, old))
		require.NoError(t, s.CreateLink(ctx, clicked))
		require.NoError(t, s.CreateLink(ctx, fresh))

		// A click after the cutoff keeps the link out of the dormant set.
		require.NoError(t, s.AppendClick(ctx, shortener.NewClickEvent(clicked.ID, now.Add(-10*24*time.Hour), "", "", "")))

		dormant, err := s.DormantLinks(ctx, cutoff)

		require.NoError(t, err)
		require.Len(t, dormant, 1)
		assert.Equal(t, old.ID, dormant[0].ID)
	})

	t.Run("clicks before cutoff", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink(t, "https://example.com", "abc123", nil, now)
		require.NoError(t, s.CreateLink(ctx, link))

		cutoff := now.Add(-time.Hour)

		require.NoError(t, s.AppendClick(ctx, shortener.NewClickEvent(link.ID, cutoff.Add(-time.Minute), "", "", "")))
		require.NoError(t, s.AppendClick(ctx, shortener.NewClickEvent(link.ID, cutoff.Add(time.Minute), "", "", "")))

		ids, err := s.LinkIDsWithClicksBefore(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{link.ID}, ids)

		old, err := s.ClicksBefore(ctx, link.ID, cutoff)
		require.NoError(t, err)
		assert.Len(t, old, 1)

		removed, err := s.DeleteClicksBefore(ctx, link.ID, cutoff)
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		remaining, err := s.CountClicks(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, remaining)
	})
}

func TestMemoryStoreWithinTx(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("commits on success", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink(t, "https://example.com", "abc123", nil, now)

		err := s.WithinTx(ctx, func(tx shortener.Store) error {
			return tx.CreateLink(ctx, link)
		})

		require.NoError(t, err)

		_, err = s.LinkByCode(ctx, "abc123")
		assert.NoError(t, err)
	})

	t.Run("rolls back every write on failure", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink(t, "https://example.com", "abc123", nil, now)
		require.NoError(t, s.CreateLink(ctx, link))

		boom := errors.New("boom")

		archive, err := shortener.NewCompressedLink(link, now)
		require.NoError(t, err)

		err = s.WithinTx(ctx, func(tx shortener.Store) error {
			if err := tx.CreateArchive(ctx, archive); err != nil {
				return err
			}

			if err := tx.DeleteLinks(ctx, []uuid.UUID{link.ID}); err != nil {
				return err
			}

			return boom
		})

		assert.ErrorIs(t, err, boom)

		// The link survived and no archive was left behind.
		_, err = s.LinkByCode(ctx, "abc123")
		assert.NoError(t, err)

		archives, err := s.CountArchives(ctx)
		require.NoError(t, err)
		assert.Zero(t, archives)
	})
}
