package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nilantra/furniture-api/internal/dto"
	"github.com/nilantra/furniture-api/internal/model"
)

// ProductCache is a read-through cache of single products. A nil cache or a
// nil client turns every call into a miss or a no-op.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func ProductKey(id uuid.UUID) string { return "product:" + id.String() }

func (c *ProductCache) enabled() bool { return c != nil && c.client != nil }

func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*model.Product, bool) {
	if !c.enabled() {
		return nil, false
	}
	cached, err := c.client.Get(ctx, ProductKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp dto.ProductResponse
	if json.Unmarshal(cached, &resp) != nil {
		return nil, false
	}
	p := resp.ToModel()
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *model.Product) {
	if !c.enabled() {
		return
	}
	if data, err := json.Marshal(dto.NewProductResponse(p)); err == nil {
		c.client.Set(ctx, ProductKey(p.ID), data, c.ttl)
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if !c.enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProductKey(id)
	}
	c.client.Del(ctx, keys...)
}
