package service

import (
	"context"
	"fmt"
	"strings"

	"sahaayak/internal/domain"
	"sahaayak/internal/metrics"
	"sahaayak/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DonationInput is what a donor fills in when offering leftover food
type DonationInput struct {
	DonorName  string
	FoodType   string
	Quantity   string
	ExpiryTime string
	Location   string
}

// DonationService lists and accepts surplus-food donations
type DonationService interface {
	List(ctx context.Context, status *domain.DonationStatus) ([]*domain.Donation, error)
	Create(ctx context.Context, donor domain.Identity, input DonationInput) (*domain.Donation, error)
}

type donationService struct {
	donationRepo repository.DonationRepository
	logger       *zap.Logger
}

// NewDonationService creates a new instance of DonationService
func NewDonationService(donationRepo repository.DonationRepository, logger *zap.Logger) DonationService {
	return &donationService{donationRepo: donationRepo, logger: logger}
}

func (s *donationService) List(ctx context.Context, status *domain.DonationStatus) ([]*domain.Donation, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("unknown donation status %q: %w", *status, domain.ErrInvalidInput)
	}
	return s.donationRepo.List(ctx, status)
}

// Create records a donation as pending until it is checked for pickup.
// The donor's account name is used when no donor name is given.
func (s *donationService) Create(ctx context.Context, donor domain.Identity, input DonationInput) (*domain.Donation, error) {
	d := &domain.Donation{
		ID:         uuid.New(),
		DonorID:    donor.ID,
		DonorRole:  donor.Role,
		DonorName:  strings.TrimSpace(input.DonorName),
		FoodType:   strings.TrimSpace(input.FoodType),
		Quantity:   strings.TrimSpace(input.Quantity),
		ExpiryTime: strings.TrimSpace(input.ExpiryTime),
		Location:   strings.TrimSpace(input.Location),
		Status:     domain.DonationPending,
	}
	if d.DonorName == "" {
		d.DonorName = donor.Name
	}

	switch {
	case !donor.Role.Valid():
		return nil, domain.ErrNotAuthorized
	case d.FoodType == "":
		return nil, fmt.Errorf("food type is required: %w", domain.ErrInvalidInput)
	case d.Quantity == "":
		return nil, fmt.Errorf("quantity is required: %w", domain.ErrInvalidInput)
	case d.Location == "":
		return nil, fmt.Errorf("pickup location is required: %w", domain.ErrInvalidInput)
	}

	if err := s.donationRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	metrics.DonationsCreatedTotal.WithLabelValues(string(donor.Role)).Inc()
	s.logger.Info("Food donation offered",
		zap.String("donation_id", d.ID.String()),
		zap.String("donor_id", donor.ID.String()),
		zap.String("food_type", d.FoodType),
	)
	return d, nil
}
