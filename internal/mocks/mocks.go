package mocks

import (
	"context"
	"time"

	"order-lifecycle/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockProductRepository struct {
	mock.Mock
}

type MockNotifier struct {
	mock.Mock
}

type MockOrderCache struct {
	mock.Mock
}

type MockTickLocker struct {
	mock.Mock
}

type MockOrderLifecycle struct {
	mock.Mock
}

func orders(args mock.Arguments) ([]domain.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Order, error) {
	return orders(m.Called(ctx, ids))
}

func (m *MockOrderRepository) FindByBuyerID(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return orders(m.Called(ctx, buyerID))
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	return orders(m.Called(ctx))
}

func (m *MockOrderRepository) FindNotFinished(ctx context.Context) ([]domain.Order, error) {
	return orders(m.Called(ctx))
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, decrements []domain.StockDecrement) error {
	args := m.Called(ctx, id, from, to, decrements)
	return args.Error(0)
}

func (m *MockOrderRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) SaveAll(ctx context.Context, products []domain.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *MockNotifier) NotifyStatusChanged(ctx context.Context, evt domain.OrderStatusChangedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockOrderCache) GetBuyerOrders(ctx context.Context, buyerID string) ([]domain.Order, bool) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]domain.Order), args.Bool(1)
}

func (m *MockOrderCache) SetBuyerOrders(ctx context.Context, buyerID string, orders []domain.Order) {
	m.Called(ctx, buyerID, orders)
}

func (m *MockOrderCache) InvalidateBuyer(ctx context.Context, buyerID string) {
	m.Called(ctx, buyerID)
}

func (m *MockTickLocker) TryLock(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	args := m.Called(ctx, ttl)
	release, _ := args.Get(0).(func())
	if release == nil {
		release = func() {}
	}
	return release, args.Bool(1), args.Error(2)
}

func (m *MockOrderLifecycle) FindNotFinished(ctx context.Context) ([]domain.Order, error) {
	return orders(m.Called(ctx))
}

func (m *MockOrderLifecycle) ApplyTransition(ctx context.Context, order *domain.Order, target domain.OrderStatus) error {
	args := m.Called(ctx, order, target)
	return args.Error(0)
}
