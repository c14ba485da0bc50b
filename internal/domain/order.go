package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderFulfilled, OrderCancelled},
	OrderFulfilled: {},
	OrderCancelled: {},
}

// CanTransitionTo reports whether the order may move from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Order is a vendor's purchase of one product from a wholesaler
type Order struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	WholesalerID uuid.UUID   `json:"wholesalerId" db:"wholesaler_id"`
	VendorID     uuid.UUID   `json:"vendorId" db:"vendor_id"`
	ProductID    uuid.UUID   `json:"productId" db:"product_id"`
	ProductName  string      `json:"productName,omitempty" db:"-"`
	Quantity     int         `json:"quantity" db:"quantity"`
	UnitPrice    float64     `json:"unitPrice" db:"unit_price"`
	Total        float64     `json:"total" db:"total"`
	Status       OrderStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// RecentItem summarises how often a vendor ordered a product
type RecentItem struct {
	ProductID     uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Unit          string    `json:"unit"`
	Price         float64   `json:"price"`
	OrderCount    int       `json:"orderCount"`
	LastOrderedAt time.Time `json:"lastOrderedAt"`
}
