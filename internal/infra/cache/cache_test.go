package cache

import (
	"context"
	"testing"
	"time"

	"order-lifecycle/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestOrderCache_RoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewOrderCache(rdb, 10*time.Second, zerolog.Nop())

	_, ok := c.GetBuyerOrders(ctx, "buyer-1")
	assert.False(t, ok)

	orders := []domain.Order{{ID: "o-1", BuyerID: "buyer-1", Status: domain.StatusPending, Items: []domain.OrderItem{{ID: "i-1", ProductID: "p", Quantity: 2}}}}
	c.SetBuyerOrders(ctx, "buyer-1", orders)
	assert.True(t, mr.Exists("orders:buyer:buyer-1"))

	got, ok := c.GetBuyerOrders(ctx, "buyer-1")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "o-1", got[0].ID)
	assert.Equal(t, int64(2), got[0].Items[0].Quantity)

	c.InvalidateBuyer(ctx, "buyer-1")
	_, ok = c.GetBuyerOrders(ctx, "buyer-1")
	assert.False(t, ok)
}

func TestOrderCache_EmptyListAndExpiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewOrderCache(rdb, time.Second, zerolog.Nop())

	c.SetBuyerOrders(ctx, "nobody", nil)
	got, ok := c.GetBuyerOrders(ctx, "nobody")
	require.True(t, ok)
	assert.Empty(t, got)

	mr.FastForward(2 * time.Second)
	_, ok = c.GetBuyerOrders(ctx, "nobody")
	assert.False(t, ok)
}

func TestOrderCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	require.NoError(t, mr.Set("orders:buyer:b", "not json"))

	_, ok := NewOrderCache(rdb, time.Second, zerolog.Nop()).GetBuyerOrders(ctx, "b")
	assert.False(t, ok)
}

func TestTickLock(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	first := NewTickLock(rdb, "orders:processor:lock")
	second := NewTickLock(rdb, "orders:processor:lock")

	release, ok, err := first.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("orders:processor:lock"))

	release2, ok, err := second.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// an expired holder must not release the new owner's lock
	mr.FastForward(2 * time.Minute)
	release3, ok, err := first.TryLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	release2()
	assert.True(t, mr.Exists("orders:processor:lock"))
	release3()
}
