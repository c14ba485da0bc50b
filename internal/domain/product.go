package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Product stock states, derived at read time
const (
	StatusOutOfStock = "Out of Stock"
	StatusLowStock   = "Low Stock"
	StatusInStock    = "In Stock"
)

// Product represents a wholesaler's listing in the catalog
type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	WholesalerID  uuid.UUID `json:"wholesalerId" db:"wholesaler_id"`
	Name          string    `json:"name" db:"name"`
	Category      string    `json:"category" db:"category"`
	Unit          string    `json:"unit" db:"unit"`
	Price         float64   `json:"price" db:"price"`
	OriginalPrice float64   `json:"originalPrice" db:"original_price"`
	BulkQuantity  int       `json:"bulkQuantity" db:"bulk_quantity"`
	Stock         int       `json:"stock" db:"stock"`
	GroupBuy      bool      `json:"groupBuy" db:"group_buy"`
	ImageURL      string    `json:"imageUrl" db:"image_url"`
	Views         int       `json:"views" db:"views"`
	Likes         int       `json:"likes" db:"likes"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Status reports the stock state relative to the restock threshold
func (p *Product) Status(threshold int) string {
	switch {
	case p.Stock <= 0:
		return StatusOutOfStock
	case p.Stock < threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Discount is the whole-number percentage off the original price
func (p *Product) Discount() int {
	if p.OriginalPrice <= 0 || p.OriginalPrice <= p.Price {
		return 0
	}
	return int(math.Round(100 * (p.OriginalPrice - p.Price) / p.OriginalPrice))
}

// EstimatedSavings is the saving against list price for one bulk lot
func (p *Product) EstimatedSavings() float64 {
	if p.OriginalPrice <= p.Price {
		return 0
	}
	qty := p.BulkQuantity
	if qty < 1 {
		qty = 1
	}
	return RoundMoney((p.OriginalPrice - p.Price) * float64(qty))
}

// ProductView is a catalog entry joined with its wholesaler's public profile
type ProductView struct {
	Product
	WholesalerName   string  `json:"wholesaler"`
	TrustScore       float64 `json:"trustScore"`
	DiscountPercent  int     `json:"discount"`
	EstimatedSavings float64 `json:"estimatedSavings"`
	StockStatus      string  `json:"status"`
	InStock          bool    `json:"inStock"`
}

// NewProductView fills in the derived fields of a catalog entry
func NewProductView(p Product, wholesalerName string, trustScore float64, threshold int) ProductView {
	return ProductView{
		Product:          p,
		WholesalerName:   wholesalerName,
		TrustScore:       trustScore,
		DiscountPercent:  p.Discount(),
		EstimatedSavings: p.EstimatedSavings(),
		StockStatus:      p.Status(threshold),
		InStock:          p.Stock > 0,
	}
}

// RoundMoney rounds an amount to two decimal places
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
