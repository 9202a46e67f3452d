package services

import (
	"strconv"
	"time"

	"order-lifecycle/internal/domain"
)

func CreateMockOrder(id, buyerID string, status domain.OrderStatus, items ...domain.OrderItem) *domain.Order {
	return &domain.Order{
		ID:        id,
		BuyerID:   buyerID,
		Status:    status,
		CreatedAt: time.Now(),
		Items:     items,
	}
}

func CreateMockProduct(id, title string, stock int64) domain.Product {
	return domain.Product{ID: id, Title: title, Stock: stock}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

const (
	TestBuyerID   = "buyer-1"
	TestProductA  = "product-a"
	TestProductB  = "product-b"
	TestOrderID   = "order-1"
	TestStockFive = int64(5)
)
