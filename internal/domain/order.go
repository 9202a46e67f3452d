package domain

import "time"

type Order struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID   string      `json:"buyerId" gorm:"type:varchar(36);not null;index"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	CreatedAt time.Time   `json:"createdAt" gorm:"not null;index"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is owned by exactly one order and never changes after checkout.
type OrderItem struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID string `json:"productId" gorm:"type:varchar(36);not null;index"`
	Quantity  int64  `json:"quantity" gorm:"not null"`
	Position  int    `json:"-" gorm:"not null;default:0"`
}

type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" gorm:"type:varchar(255)"`
	Stock     int64     `json:"stock" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StockDecrement is one line of an atomic decrement-if-sufficient batch.
type StockDecrement struct {
	ProductID string
	Quantity  int64
}

// ProductIDs returns the distinct product ids of the order in item order.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

// Clone returns a deep copy so callers never share the items slice.
func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}
