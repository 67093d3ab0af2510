package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkcycle/internal/shortener"
)

// CachedStore wraps a Store with Redis caching for link lookups by code,
// the hot path behind every redirect. All other operations pass through.
//
// Lifecycle jobs delete links inside transactions the cache cannot see,
// so a removed link may linger in the cache until its TTL lapses. Callers
// must still check Resolvable before redirecting.
type CachedStore struct {
	shortener.Store

	client *redis.Client
	prefix string
	idKey  string
	ttl    time.Duration
}

// NewCachedStore creates a Redis-cached store decorator.
func NewCachedStore(inner shortener.Store, client *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store:  inner,
		client: client,
		prefix: "link:",
		idKey:  "link_codes",
		ttl:    ttl,
	}
}

// CreateLink stores the link in the underlying store and updates the cache.
func (c *CachedStore) CreateLink(ctx context.Context, link *shortener.Link) error {
	if err := c.Store.CreateLink(ctx, link); err != nil {
		return err
	}

	// Write-through: update cache after successful save
	c.cacheLink(ctx, link)

	return nil
}

// LinkByCode retrieves a link by its code, checking cache first.
func (c *CachedStore) LinkByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if link, err := c.getFromCache(ctx, code); err == nil {
		return link, nil
	}

	// Cache miss - fetch from store
	link, err := c.Store.LinkByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	c.cacheLink(ctx, link)

	return link, nil
}

// UpdateLink persists the mutation and rewrites the cached entry.
func (c *CachedStore) UpdateLink(ctx context.Context, link *shortener.Link) error {
	if err := c.Store.UpdateLink(ctx, link); err != nil {
		return err
	}

	c.cacheLink(ctx, link)

	return nil
}

// IncrementClicks bumps the counter in the store and drops the cached
// entry so the next read reloads the fresh count.
func (c *CachedStore) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	if err := c.Store.IncrementClicks(ctx, id); err != nil {
		return err
	}

	c.invalidateByID(ctx, id)

	return nil
}

// DeleteLinks removes the links and their cached entries.
func (c *CachedStore) DeleteLinks(ctx context.Context, ids []uuid.UUID) error {
	if err := c.Store.DeleteLinks(ctx, ids); err != nil {
		return err
	}

	for _, id := range ids {
		c.invalidateByID(ctx, id)
	}

	return nil
}

func (c *CachedStore) getFromCache(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	result, err := c.client.HGetAll(ctx, c.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	id, err := uuid.Parse(result["id"])
	if err != nil {
		return nil, err
	}

	link := &shortener.Link{
		ID:          id,
		Code:        shortener.Code(result["code"]),
		OriginalURL: result["original_url"],
		Active:      result["active"] == "1",
	}

	if nanos, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		link.CreatedAt = time.Unix(0, nanos)
	}

	if raw, ok := result["expires_at"]; ok && raw != "" {
		if nanos, err := strconv.ParseInt(raw, 10, 64); err == nil {
			expiresAt := time.Unix(0, nanos)
			link.ExpiresAt = &expiresAt
		}
	}

	if count, err := strconv.Atoi(result["click_count"]); err == nil {
		link.ClickCount = count
	}

	return link, nil
}

func (c *CachedStore) cacheLink(ctx context.Context, link *shortener.Link) {
	pipe := c.client.Pipeline()
	key := c.prefix + string(link.Code)

	active := "0"
	if link.Active {
		active = "1"
	}

	expiresAt := ""
	if link.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(link.ExpiresAt.UnixNano(), 10)
	}

	pipe.HSet(ctx, key, map[string]interface{}{
		"id":           link.ID.String(),
		"code":         string(link.Code),
		"original_url": link.OriginalURL,
		"created_at":   strconv.FormatInt(link.CreatedAt.UnixNano(), 10),
		"expires_at":   expiresAt,
		"click_count":  strconv.Itoa(link.ClickCount),
		"active":       active,
	})

	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}

	// Index by identity so deletes can find the code key
	pipe.HSet(ctx, c.idKey, link.ID.String(), string(link.Code))

	_, _ = pipe.Exec(ctx)
}

func (c *CachedStore) invalidateByID(ctx context.Context, id uuid.UUID) {
	code, err := c.client.HGet(ctx, c.idKey, id.String()).Result()
	if err != nil {
		return
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.prefix+code)
	pipe.HDel(ctx, c.idKey, id.String())
	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ shortener.Store = (*CachedStore)(nil)
