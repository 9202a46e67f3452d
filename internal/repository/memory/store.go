package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/repository"
)

// Store keeps orders and products behind one mutex, so a status update and its
// stock decrements are applied as a unit.
type Store struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	products map[string]domain.Product
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[string]domain.Order),
		products: make(map[string]domain.Product),
		now:      time.Now,
	}
}

func (s *Store) Orders() repository.OrderRepository { return orderStore{s} }

func (s *Store) Products() repository.ProductRepository { return productStore{s} }

type orderStore struct{ *Store }

type productStore struct{ *Store }

var (
	_ repository.OrderRepository   = orderStore{}
	_ repository.ProductRepository = productStore{}
)

func (s orderStore) Save(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s orderStore) FindByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	c := o.Clone()
	return &c, nil
}

func (s orderStore) FindByIDs(_ context.Context, ids []string) ([]domain.Order, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.filter(func(o domain.Order) bool {
		_, ok := want[o.ID]
		return ok
	}), nil
}

func (s orderStore) FindByBuyerID(_ context.Context, buyerID string) ([]domain.Order, error) {
	return s.filter(func(o domain.Order) bool { return o.BuyerID == buyerID }), nil
}

func (s orderStore) FindAll(_ context.Context) ([]domain.Order, error) {
	return s.filter(func(domain.Order) bool { return true }), nil
}

func (s orderStore) FindNotFinished(_ context.Context) ([]domain.Order, error) {
	return s.filter(func(o domain.Order) bool { return !o.Status.Terminal() }), nil
}

func (s orderStore) filter(keep func(domain.Order) bool) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s orderStore) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, decrements []domain.StockDecrement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrTransitionConflict
	}

	// check every line before touching anything
	next := make(map[string]domain.Product, len(decrements))
	for _, d := range decrements {
		p, ok := next[d.ProductID]
		if !ok {
			p, ok = s.products[d.ProductID]
			if !ok {
				return &domain.ProductNotFoundError{ProductID: d.ProductID}
			}
		}
		if p.Stock < d.Quantity {
			return &domain.InsufficientStockError{ProductID: d.ProductID, Requested: d.Quantity, Available: p.Stock}
		}
		p.Stock -= d.Quantity
		next[d.ProductID] = p
	}

	now := s.now()
	for id, p := range next {
		p.UpdatedAt = now
		s.products[id] = p
	}
	o.Status = to
	o.UpdatedAt = now
	s.orders[id] = o
	return nil
}

func (s orderStore) DeleteByID(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return 0, nil
	}
	delete(s.orders, id)
	return 1, nil
}

func (s productStore) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Product
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s productStore) SaveAll(_ context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, p := range products {
		p.UpdatedAt = now
		s.products[p.ID] = p
	}
	return nil
}
