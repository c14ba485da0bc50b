package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sahaayak/internal/domain"
	"sahaayak/internal/repository"
	"sahaayak/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type seedWholesaler struct {
	account  service.RegisterWholesalerInput
	products []service.CreateProductInput
}

var seedVendors = []service.RegisterVendorInput{
	{Name: "Raj Patel", Phone: "9876543210", Password: "vendor123", Location: "Ghatkopar"},
	{Name: "Priya Shah", Phone: "9876543211", Password: "vendor123", Location: "Ghatkopar"},
	{Name: "Amit Kumar", Phone: "9876543212", Password: "vendor123", Location: "Andheri"},
}

var seedWholesalers = []seedWholesaler{
	{
		account: service.RegisterWholesalerInput{
			Name: "Fresh Valley Wholesalers", Phone: "9999999999", Password: "password123",
			ShopName: "Fresh Valley Wholesalers", Location: "Pune, Maharashtra", Sourcing: "Direct from farms",
		},
		products: []service.CreateProductInput{
			{Name: "Fresh Tomatoes", Category: "Vegetables", Unit: "per kg", Price: 25, OriginalPrice: 35, BulkQuantity: 10, Stock: 100, GroupBuy: true},
			{Name: "Red Onions", Category: "Vegetables", Unit: "per kg", Price: 18, OriginalPrice: 25, BulkQuantity: 10, Stock: 150},
		},
	},
	{
		account: service.RegisterWholesalerInput{
			Name: "Spice Garden Suppliers", Phone: "9000000002", Password: "sharma123",
			ShopName: "Spice Garden Suppliers", Location: "Mumbai, Maharashtra", Sourcing: "Kerala and Rajasthan spice estates",
		},
		products: []service.CreateProductInput{
			{Name: "Basmati Rice", Category: "Grains", Unit: "per 5kg", Price: 120, OriginalPrice: 150, BulkQuantity: 5, Stock: 60},
			{Name: "Turmeric Powder", Category: "Spices", Unit: "per kg", Price: 280, OriginalPrice: 320, BulkQuantity: 1, Stock: 40},
		},
	},
}

// seeder creates demo accounts and listings through the services, skipping what already exists
type seeder struct {
	auth           service.AuthService
	catalog        service.CatalogService
	vendorRepo     repository.VendorRepository
	wholesalerRepo repository.WholesalerRepository
	productRepo    repository.ProductRepository
	log            *zap.Logger
}

func seedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load approved demo vendors, wholesalers and products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			svc := a.services()
			s := &seeder{
				auth:           svc.Auth,
				catalog:        svc.Catalog,
				vendorRepo:     repository.NewVendorRepository(a.store),
				wholesalerRepo: repository.NewWholesalerRepository(a.store),
				productRepo:    repository.NewProductRepository(a.store),
				log:            a.log,
			}
			return s.run(ctx)
		},
	}
}

func (s *seeder) run(ctx context.Context) error {
	for _, input := range seedVendors {
		id, err := s.vendor(ctx, input)
		if err != nil {
			return fmt.Errorf("seeding vendor %s: %w", input.Phone, err)
		}
		if err := s.auth.SetApproval(ctx, domain.RoleVendor, id, true); err != nil {
			return err
		}
	}

	for _, w := range seedWholesalers {
		id, err := s.wholesaler(ctx, w.account)
		if err != nil {
			return fmt.Errorf("seeding wholesaler %s: %w", w.account.Phone, err)
		}
		if err := s.auth.SetApproval(ctx, domain.RoleWholesaler, id, true); err != nil {
			return err
		}

		existing, err := s.productRepo.ListByWholesaler(ctx, id)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			s.log.Info("Wholesaler already has listings", zap.String("wholesaler", w.account.Name))
			continue
		}
		for _, p := range w.products {
			if _, err := s.catalog.CreateProduct(ctx, id, p); err != nil {
				return fmt.Errorf("seeding product %s: %w", p.Name, err)
			}
		}
	}

	s.log.Info("Seed data loaded",
		zap.Int("vendors", len(seedVendors)),
		zap.Int("wholesalers", len(seedWholesalers)),
	)
	return nil
}

func (s *seeder) vendor(ctx context.Context, input service.RegisterVendorInput) (uuid.UUID, error) {
	v, err := s.auth.RegisterVendor(ctx, input)
	if errors.Is(err, domain.ErrAlreadyExists) {
		v, err = s.vendorRepo.FindByPhone(ctx, input.Phone)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return v.ID, nil
}

func (s *seeder) wholesaler(ctx context.Context, input service.RegisterWholesalerInput) (uuid.UUID, error) {
	w, err := s.auth.RegisterWholesaler(ctx, input)
	if errors.Is(err, domain.ErrAlreadyExists) {
		w, err = s.wholesalerRepo.FindByPhone(ctx, input.Phone)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return w.ID, nil
}
