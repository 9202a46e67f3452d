package http

import (
	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/services"
)

type CreateOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	BuyerID string                   `json:"buyerId" binding:"required"`
	Items   []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (r CreateOrderRequest) toItems() []services.CreateOrderItem {
	items := make([]services.CreateOrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, services.CreateOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return items
}

type ProductRequest struct {
	ID    string `json:"id" binding:"required"`
	Title string `json:"title"`
	Stock int64  `json:"stock" binding:"min=0"`
}

func toProducts(req []ProductRequest) []domain.Product {
	out := make([]domain.Product, 0, len(req))
	for _, p := range req {
		out = append(out, domain.Product{ID: p.ID, Title: p.Title, Stock: p.Stock})
	}
	return out
}

type ErrorResponse struct {
	Error string `json:"error"`
}
