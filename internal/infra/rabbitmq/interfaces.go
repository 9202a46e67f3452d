package rabbitmq

import (
	"context"

	"order-lifecycle/internal/infra"
)

type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

var (
	_ PublisherInterface      = (*Publisher)(nil)
	_ infra.NotifierInterface = (*Publisher)(nil)
)
