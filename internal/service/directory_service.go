package service

import (
	"context"

	"sahaayak/internal/domain"
	"sahaayak/internal/repository"
)

// DirectoryService lists the approved accounts on each side of the marketplace
type DirectoryService interface {
	ListVendors(ctx context.Context) ([]*domain.Vendor, error)
	ListWholesalers(ctx context.Context, sortBy string) ([]*domain.Wholesaler, error)
}

type directoryService struct {
	vendorRepo     repository.VendorRepository
	wholesalerRepo repository.WholesalerRepository
}

// NewDirectoryService creates a new instance of DirectoryService
func NewDirectoryService(vendorRepo repository.VendorRepository, wholesalerRepo repository.WholesalerRepository) DirectoryService {
	return &directoryService{vendorRepo: vendorRepo, wholesalerRepo: wholesalerRepo}
}

func (s *directoryService) ListVendors(ctx context.Context) ([]*domain.Vendor, error) {
	return s.vendorRepo.ListApproved(ctx)
}

func (s *directoryService) ListWholesalers(ctx context.Context, sortBy string) ([]*domain.Wholesaler, error) {
	return s.wholesalerRepo.ListApproved(ctx, sortBy)
}
