package cache

import (
	"context"
	"time"

	"order-lifecycle/internal/infra"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type TickLock struct {
	rdb *redis.Client
	key string
}

var _ infra.TickLockerInterface = (*TickLock)(nil)

func NewTickLock(rdb *redis.Client, key string) *TickLock {
	return &TickLock{rdb: rdb, key: key}
}

func (l *TickLock) TryLock(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}

	release := func() {
		// the tick context may already be done
		_ = releaseScript.Run(context.Background(), l.rdb, []string{l.key}, token).Err()
	}
	return release, true, nil
}
