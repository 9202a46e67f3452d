package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/infra"
	"order-lifecycle/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("order-lifecycle/services")

type CreateOrderItem struct {
	ProductID string
	Quantity  int64
}

// OrderService is the only writer of an order's status and the only caller of
// the stock decrement tied to it.
type OrderService struct {
	repo     repository.OrderRepository
	products repository.ProductRepository
	cache    infra.OrderCacheInterface
	now      func() time.Time
	newID    func() string
}

func NewOrderService(r repository.OrderRepository, p repository.ProductRepository) *OrderService {
	return &OrderService{
		repo:     r,
		products: p,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (u *OrderService) SetOrderCache(c infra.OrderCacheInterface) {
	u.cache = c
}

// CreateOrder validates every line against current stock before anything is
// written, then stores the order in PENDING with its items.
func (u *OrderService) CreateOrder(ctx context.Context, buyerID string, items []CreateOrderItem) (*domain.Order, error) {
	if buyerID == "" {
		return nil, fmt.Errorf("%w: buyer id is required", domain.ErrInvalidOrderRequest)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrInvalidOrderRequest)
	}

	requested := make(map[string]int64, len(items))
	var ids []string
	for _, it := range items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidOrderRequest)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %s must be positive", domain.ErrInvalidOrderRequest, it.ProductID)
		}
		if _, seen := requested[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}

	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, &domain.ProductNotFoundError{ProductID: id}
		}
	}
	for _, id := range ids {
		if p := byID[id]; requested[id] > p.Stock {
			return nil, &domain.InsufficientStockError{ProductID: id, Requested: requested[id], Available: p.Stock}
		}
	}

	now := u.now()
	order := &domain.Order{
		ID:        u.newID(),
		BuyerID:   buyerID,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     make([]domain.OrderItem, 0, len(items)),
	}
	for i, it := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:        u.newID(),
			OrderID:   order.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Position:  i,
		})
	}

	if err := u.repo.Save(ctx, order); err != nil {
		return nil, err
	}
	u.invalidate(ctx, buyerID)

	return order, nil
}

// ApplyTransition moves order to target, which must be the state machine's
// successor of the current status. Entering PROCESSING decrements stock in the
// same store transaction. On success order.Status is updated in place.
func (u *OrderService) ApplyTransition(ctx context.Context, order *domain.Order, target domain.OrderStatus) error {
	ctx, span := tracer.Start(ctx, "OrderService.ApplyTransition", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.from", string(order.Status)),
		attribute.String("order.to", string(target)),
	))
	defer span.End()

	next, ok, err := domain.NextStatus(order.Status)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !ok || next != target {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, target)
	}

	var decrements []domain.StockDecrement
	if target == domain.StatusProcessing {
		decrements = stockDecrements(order.Items)
	}

	if err := u.repo.UpdateStatus(ctx, order.ID, order.Status, target, decrements); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update status")
		return err
	}

	order.Status = target
	order.UpdatedAt = u.now()
	u.invalidate(ctx, order.BuyerID)
	return nil
}

// stockDecrements sums quantities per product, sorted by product id.
func stockDecrements(items []domain.OrderItem) []domain.StockDecrement {
	totals := make(map[string]int64, len(items))
	for _, it := range items {
		totals[it.ProductID] += it.Quantity
	}
	out := make([]domain.StockDecrement, 0, len(totals))
	for id, q := range totals {
		out = append(out, domain.StockDecrement{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (u *OrderService) FindNotFinished(ctx context.Context) ([]domain.Order, error) {
	return u.repo.FindNotFinished(ctx)
}

func (u *OrderService) GetOrderById(ctx context.Context, id string) (*domain.Order, error) {
	o, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderService) GetOrdersByIds(ctx context.Context, ids []string) ([]domain.Order, error) {
	return u.repo.FindByIDs(ctx, ids)
}

func (u *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return u.repo.FindAll(ctx)
}

func (u *OrderService) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if u.cache != nil {
		if orders, ok := u.cache.GetBuyerOrders(ctx, buyerID); ok {
			return orders, nil
		}
	}

	orders, err := u.repo.FindByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		u.cache.SetBuyerOrders(ctx, buyerID, orders)
	}
	return orders, nil
}

// DeleteOrder removes the order and returns it. deleted is false when the
// order did not exist.
func (u *OrderService) DeleteOrder(ctx context.Context, id string) (order *domain.Order, deleted bool, err error) {
	existing, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, nil
	}

	n, err := u.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}
	u.invalidate(ctx, existing.BuyerID)
	return existing, true, nil
}

func (u *OrderService) invalidate(ctx context.Context, buyerID string) {
	if u.cache != nil {
		u.cache.InvalidateBuyer(ctx, buyerID)
	}
}
