package domain

import "time"

// OrderStatusChangedEvent is what the notification gateway receives after an
// order advanced.
type OrderStatusChangedEvent struct {
	OrderID        string      `json:"orderId"`
	BuyerID        string      `json:"buyerId"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previousStatus"`
	ChangedAt      time.Time   `json:"changedAt"`
	Items          []OrderItem `json:"items,omitempty"`
}

func NewOrderStatusChangedEvent(o *Order, previous OrderStatus, at time.Time) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:        o.ID,
		BuyerID:        o.BuyerID,
		Status:         o.Status,
		PreviousStatus: previous,
		ChangedAt:      at,
		Items:          o.Clone().Items,
	}
}
