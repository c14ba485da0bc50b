package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a vendor's rating of a wholesaler
type Review struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	WholesalerID   uuid.UUID  `json:"wholesalerId" db:"wholesaler_id"`
	VendorID       uuid.UUID  `json:"vendorId" db:"vendor_id"`
	VendorName     string     `json:"vendorName,omitempty" db:"-"`
	WholesalerName string     `json:"wholesalerName,omitempty" db:"-"`
	Rating         int        `json:"rating" db:"rating"`
	Comment        string     `json:"comment" db:"comment"`
	Reply          *string    `json:"reply" db:"reply"`
	RepliedAt      *time.Time `json:"repliedAt,omitempty" db:"replied_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

// HasReply reports whether the wholesaler already answered
func (r *Review) HasReply() bool {
	return r.Reply != nil
}
