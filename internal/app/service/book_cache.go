package service

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"bookstack/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const bookCacheVersionKey = "books:ver"

// BookListCache keeps list responses in Redis keyed by the filter and the
// pagination window. Every catalog write bumps a version counter, which
// orphans all cached pages at once instead of tracking keys individually.
// A nil cache is valid and disables caching entirely.
type BookListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBookListCache(rdb *redis.Client, ttl time.Duration) *BookListCache {
	if rdb == nil {
		return nil
	}
	return &BookListCache{rdb: rdb, ttl: ttl}
}

func (c *BookListCache) key(ctx context.Context, filter model.BookFilter, page, limit int) (string, error) {
	version, err := c.rdb.Get(ctx, bookCacheVersionKey).Result()
	if err != nil {
		if err != redis.Nil {
			return "", err
		}
		version = "0"
	}

	year := ""
	if filter.Year != nil {
		year = fmt.Sprintf("%d", *filter.Year)
	}
	raw := fmt.Sprintf("title=%s|author=%s|year=%s|category=%s|page=%d|limit=%d",
		filter.Title, filter.Author, year, filter.Category, page, limit)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("books:v%s:%x", version, sum), nil
}

func (c *BookListCache) Get(ctx context.Context, filter model.BookFilter, page, limit int) (*BookPage, bool) {
	if c == nil {
		return nil, false
	}
	key, err := c.key(ctx, filter, page, limit)
	if err != nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var result BookPage
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *BookListCache) Set(ctx context.Context, filter model.BookFilter, page, limit int, result *BookPage) error {
	if c == nil {
		return nil
	}
	key, err := c.key(ctx, filter, page, limit)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate bumps the version counter; stale pages expire via their TTL.
func (c *BookListCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Incr(ctx, bookCacheVersionKey).Err()
}
