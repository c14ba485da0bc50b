package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the marketplace an account belongs to
type Role string

const (
	RoleVendor     Role = "vendor"
	RoleWholesaler Role = "wholesaler"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleVendor || r == RoleWholesaler
}

// Identity is the authenticated principal carried by a session
type Identity struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role Role      `json:"role"`
}

// Session is the result of a successful login
type Session struct {
	Identity  Identity
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Vendor is a small retailer buying from wholesalers
type Vendor struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Location     string    `json:"location" db:"location"`
	Approved     bool      `json:"-" db:"approved"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Wholesaler is a supplier listing products in the catalog
type Wholesaler struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	ShopName     string    `json:"shopName" db:"shop_name"`
	Documents    []string  `json:"-" db:"documents"`
	Sourcing     string    `json:"sourcing" db:"sourcing"`
	Location     string    `json:"location" db:"location"`
	Approved     bool      `json:"-" db:"approved"`
	TrustScore   float64   `json:"trustScore" db:"trust_score"`
	ResponseRate float64   `json:"responseRate" db:"response_rate"`
	DeliveryRate float64   `json:"deliveryRate" db:"delivery_rate"`
	ProfileImage string    `json:"profileImage" db:"profile_image"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Principal returns the identity a vendor authenticates as
func (v *Vendor) Principal() Identity {
	return Identity{ID: v.ID, Name: v.Name, Role: RoleVendor}
}

// Principal returns the identity a wholesaler authenticates as
func (w *Wholesaler) Principal() Identity {
	return Identity{ID: w.ID, Name: w.Name, Role: RoleWholesaler}
}
