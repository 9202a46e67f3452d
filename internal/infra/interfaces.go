package infra

import (
	"context"
	"time"

	"order-lifecycle/internal/domain"
)

// NotifierInterface delivers one event per advanced order. Delivery is best
// effort; callers log the error and move on.
type NotifierInterface interface {
	NotifyStatusChanged(ctx context.Context, evt domain.OrderStatusChangedEvent) error
}

// OrderCacheInterface caches per-buyer order lists.
type OrderCacheInterface interface {
	GetBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, bool)
	SetBuyerOrders(ctx context.Context, buyerID string, orders []domain.Order)
	InvalidateBuyer(ctx context.Context, buyerID string)
}

// TickLockerInterface keeps replicas from running the processor tick at the
// same time. release must be called when ok is true.
type TickLockerInterface interface {
	TryLock(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error)
}

var (
	_ NotifierInterface = (*NotificationClient)(nil)
	_ NotifierInterface = (*LogNotifier)(nil)
)
