package domain

import (
	"time"

	"github.com/google/uuid"
)

// DonationStatus tracks a surplus-food offer from listing to pickup
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationAvailable DonationStatus = "available"
	DonationCollected DonationStatus = "collected"
)

// Valid reports whether s is a known donation status
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationPending, DonationAvailable, DonationCollected:
		return true
	}
	return false
}

// Donation is leftover food offered by a vendor or wholesaler for collection.
// Quantity and ExpiryTime are free text as donors write them ("50 portions", "2 hours").
type Donation struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	DonorID    uuid.UUID      `json:"donorId" db:"donor_id"`
	DonorRole  Role           `json:"donorRole" db:"donor_role"`
	DonorName  string         `json:"donorName" db:"donor_name"`
	FoodType   string         `json:"foodType" db:"food_type"`
	Quantity   string         `json:"quantity" db:"quantity"`
	ExpiryTime string         `json:"expiryTime" db:"expiry_time"`
	Location   string         `json:"location" db:"location"`
	Status     DonationStatus `json:"status" db:"status"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
}
