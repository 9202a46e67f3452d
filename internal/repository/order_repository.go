package repository

import (
	"context"

	"order-lifecycle/internal/domain"
)

// OrderRepository stores orders together with their items. FindByID returns
// (nil, nil) when the order does not exist.
type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Order, error)
	FindByBuyerID(ctx context.Context, buyerID string) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	// FindNotFinished returns orders outside the terminal status ordered by
	// creation time, then id.
	FindNotFinished(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus moves the order from one status to another and applies the
	// stock decrements in the same transaction. It fails with
	// domain.ErrTransitionConflict when the stored status is not from, and with
	// *domain.InsufficientStockError when any decrement would drive stock negative.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, decrements []domain.StockDecrement) error
	DeleteByID(ctx context.Context, id string) (int64, error)
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	SaveAll(ctx context.Context, products []domain.Product) error
}
