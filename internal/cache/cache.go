// Package cache puts a Redis read-through layer in front of the catalog's list
// queries. Stored rows are cached, so the served view is still computed on
// every read.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"songhound/internal/app/catalog"
	"songhound/internal/models"
	"songhound/internal/store"
)

// DefaultTTL bounds how stale a cached page may be.
const DefaultTTL = 60 * time.Second

const keyPrefix = "songhound:songs"

// CatalogStore decorates a catalog store. Lists are cached; every other
// operation goes straight to the wrapped store.
type CatalogStore struct {
	catalog.Store
	client redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCatalogStore wraps next with a cache backed by client.
func NewCatalogStore(client redis.Cmdable, next catalog.Store, ttl time.Duration, logger zerolog.Logger) *CatalogStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogStore{Store: next, client: client, ttl: ttl, logger: logger}
}

// Connect opens a client from a redis:// URL and checks it responds.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// PageKey builds the cache key for one page of a list view.
func PageKey(view, scope string, page, limit int) string {
	limit, offset := store.NormalizePage(page, limit)
	return fmt.Sprintf("%s:%s:%s:%d:%d", keyPrefix, view, scope, offset, limit)
}

func (c *CatalogStore) LatestSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	return c.cached(ctx, PageKey("latest", provider, page, limit), func() ([]models.Song, error) {
		return c.Store.LatestSongs(ctx, provider, page, limit)
	})
}

func (c *CatalogStore) TrendingSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	return c.cached(ctx, PageKey("trending", provider, page, limit), func() ([]models.Song, error) {
		return c.Store.TrendingSongs(ctx, provider, page, limit)
	})
}

func (c *CatalogStore) UserSongs(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error) {
	return c.cached(ctx, PageKey("user", userUUID, page, limit), func() ([]models.Song, error) {
		return c.Store.UserSongs(ctx, userUUID, page, limit)
	})
}

func (c *CatalogStore) cached(ctx context.Context, key string, load func() ([]models.Song, error)) ([]models.Song, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var songs []models.Song
		if err := json.Unmarshal(raw, &songs); err == nil {
			return songs, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	songs, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(songs)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return songs, nil
	}
	if err := c.client.Set(ctx, key, string(payload), c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return songs, nil
}
