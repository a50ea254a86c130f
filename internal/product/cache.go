package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const notFoundMarker = "notfound"

// CachedRepo serves GetByID through Redis and drops the entry after every
// write. Stock mutations always reach the wrapped repository.
type CachedRepo struct {
	Repository
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedRepo(real Repository, client *redis.Client, ttl time.Duration) *CachedRepo {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedRepo{Repository: real, redis: client, ttl: ttl}
}

func cacheKey(id int64) string { return fmt.Sprintf("product:%d", id) }

func (c *CachedRepo) GetByID(ctx context.Context, id int64) (*Product, error) {
	key := cacheKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, ErrNotFound
		}
		var p Product
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("[cache] bad entry %s (continuing with DB): %v", key, err)
			break
		}
		return &p, nil
	case errors.Is(err, redis.Nil):
	default:
		log.Printf("[cache] redis error (continuing with DB): %v", err)
	}

	p, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, 5*time.Second).Err(); setErr != nil {
				log.Printf("[cache] failed to cache miss %s: %v", key, setErr)
			}
		}
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("[cache] failed to cache %s: %v", key, err)
		}
	}
	return p, nil
}

func (c *CachedRepo) Create(ctx context.Context, p *Product) error {
	if err := c.Repository.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

func (c *CachedRepo) DecrementStock(ctx context.Context, id int64, qty int) (int64, error) {
	n, err := c.Repository.DecrementStock(ctx, id, qty)
	if err == nil && n > 0 {
		c.invalidate(ctx, id)
	}
	return n, err
}

func (c *CachedRepo) IncrementStock(ctx context.Context, id int64, qty int) (int64, error) {
	n, err := c.Repository.IncrementStock(ctx, id, qty)
	if err == nil && n > 0 {
		c.invalidate(ctx, id)
	}
	return n, err
}

func (c *CachedRepo) invalidate(ctx context.Context, id int64) {
	if err := c.redis.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Printf("[cache] failed to delete %s: %v", cacheKey(id), err)
	}
}
