package cache

import (
	"context"
	"encoding/json"
	"time"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/infra"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const buyerOrdersKeyPrefix = "orders:buyer:"

// OrderCache keeps buyer order lists in redis. Cache failures are logged and
// treated as misses.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

var _ infra.OrderCacheInterface = (*OrderCache)(nil)

func NewOrderCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *OrderCache {
	return &OrderCache{
		rdb: rdb,
		ttl: ttl,
		log: logger.With().Str("component", "order_cache").Logger(),
	}
}

func buyerOrdersKey(buyerID string) string {
	return buyerOrdersKeyPrefix + buyerID
}

func (c *OrderCache) GetBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, bool) {
	b, err := c.rdb.Get(ctx, buyerOrdersKey(buyerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("buyer_id", buyerID).Msg("cache get")
		}
		return nil, false
	}

	var orders []domain.Order
	if err := json.Unmarshal(b, &orders); err != nil {
		c.log.Warn().Err(err).Str("buyer_id", buyerID).Msg("cache decode")
		return nil, false
	}
	return orders, true
}

func (c *OrderCache) SetBuyerOrders(ctx context.Context, buyerID string, orders []domain.Order) {
	if orders == nil {
		orders = []domain.Order{}
	}
	data, err := json.Marshal(orders)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, buyerOrdersKey(buyerID), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("buyer_id", buyerID).Msg("cache set")
	}
}

func (c *OrderCache) InvalidateBuyer(ctx context.Context, buyerID string) {
	if err := c.rdb.Del(ctx, buyerOrdersKey(buyerID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("buyer_id", buyerID).Msg("cache invalidate")
	}
}
