package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sahaayak/internal/domain"
	"sahaayak/internal/metrics"
	"sahaayak/internal/repository"
	"sahaayak/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Catalog sort orders
const (
	SortByPrice    = "price"
	SortByDiscount = "discount"
	SortBySavings  = "savings"

	CategoryAll = "all"
)

// Filter selects and orders catalog entries
type Filter struct {
	MaxBudget *float64
	Category  string
	SortBy    string
}

// ParseFilter builds a Filter from query values. A malformed or non-positive
// budget is ignored, an empty category means all, an unknown sort means discount.
func ParseFilter(maxBudget, category, sortBy string) Filter {
	f := Filter{Category: CategoryAll, SortBy: SortByDiscount}

	if raw := strings.TrimSpace(maxBudget); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			f.MaxBudget = &v
		}
	}

	if c := strings.TrimSpace(category); c != "" {
		f.Category = c
	}

	switch sortBy {
	case SortByPrice, SortByDiscount, SortBySavings:
		f.SortBy = sortBy
	}

	return f
}

// Matches reports whether a listing passes every active predicate
func (f Filter) Matches(v *domain.ProductView) bool {
	if f.MaxBudget != nil && v.Price > *f.MaxBudget {
		return false
	}
	if f.Category != "" && f.Category != CategoryAll && v.Category != f.Category {
		return false
	}
	return true
}

// ApplyFilter keeps the listings matching f, preserving their order
func ApplyFilter(views []domain.ProductView, f Filter) []domain.ProductView {
	out := make([]domain.ProductView, 0, len(views))
	for i := range views {
		if f.Matches(&views[i]) {
			out = append(out, views[i])
		}
	}
	return out
}

// SortViews orders listings in place; ties keep their current order
func SortViews(views []domain.ProductView, sortBy string) {
	var less func(a, b *domain.ProductView) bool
	switch sortBy {
	case SortByPrice:
		less = func(a, b *domain.ProductView) bool { return a.Price < b.Price }
	case SortBySavings:
		less = func(a, b *domain.ProductView) bool { return a.EstimatedSavings > b.EstimatedSavings }
	default:
		less = func(a, b *domain.ProductView) bool { return a.DiscountPercent > b.DiscountPercent }
	}
	sort.SliceStable(views, func(i, j int) bool { return less(&views[i], &views[j]) })
}

// CreateProductInput carries a new listing
type CreateProductInput struct {
	Name          string
	Category      string
	Unit          string
	Price         float64
	OriginalPrice float64
	BulkQuantity  int
	Stock         int
	GroupBuy      bool
	ImageURL      string
}

// CatalogService answers catalog queries and manages wholesalers' listings
type CatalogService interface {
	Query(ctx context.Context, filter Filter) ([]domain.ProductView, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ProductView, error)
	Like(ctx context.Context, id uuid.UUID) (*domain.ProductView, error)
	Categories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, wholesalerID uuid.UUID, input CreateProductInput) (*domain.ProductView, error)
	UpdateStock(ctx context.Context, wholesalerID, productID uuid.UUID, stock int) (*domain.ProductView, error)
	DeleteProduct(ctx context.Context, wholesalerID, productID uuid.UUID) error
	ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]domain.ProductView, error)
}

type catalogService struct {
	productRepo      repository.ProductRepository
	restockThreshold int
	logger           *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, restockThreshold int, logger *zap.Logger) CatalogService {
	return &catalogService{
		productRepo:      productRepo,
		restockThreshold: restockThreshold,
		logger:           logger,
	}
}

func (s *catalogService) decorate(v domain.ProductView) domain.ProductView {
	return domain.NewProductView(v.Product, v.WholesalerName, v.TrustScore, s.restockThreshold)
}

// Query returns visible listings that pass the filter, in the requested order
func (s *catalogService) Query(ctx context.Context, filter Filter) (views []domain.ProductView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.query",
		attribute.String("category", filter.Category),
		attribute.String("sort_by", filter.SortBy),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	all, err := s.productRepo.ListVisible(ctx)
	if err != nil {
		return nil, err
	}

	for i := range all {
		all[i] = s.decorate(all[i])
	}

	views = ApplyFilter(all, filter)
	SortViews(views, filter.SortBy)

	metrics.CatalogQueriesTotal.WithLabelValues(filter.SortBy).Inc()
	return views, nil
}

// Get returns one visible listing and counts the view
func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*domain.ProductView, error) {
	v, err := s.productRepo.RecordView(ctx, id)
	if err != nil {
		return nil, err
	}
	decorated := s.decorate(*v)
	return &decorated, nil
}

// Like counts a like on a visible listing
func (s *catalogService) Like(ctx context.Context, id uuid.UUID) (*domain.ProductView, error) {
	v, err := s.productRepo.Like(ctx, id)
	if err != nil {
		return nil, err
	}
	decorated := s.decorate(*v)
	return &decorated, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	return s.productRepo.Categories(ctx)
}

// CreateProduct lists a new product for wholesalerID.
// A missing original price means no markdown; a missing bulk quantity means one unit.
func (s *catalogService) CreateProduct(ctx context.Context, wholesalerID uuid.UUID, input CreateProductInput) (*domain.ProductView, error) {
	if input.OriginalPrice == 0 {
		input.OriginalPrice = input.Price
	}
	if input.BulkQuantity == 0 {
		input.BulkQuantity = 1
	}

	switch {
	case strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Category) == "":
		return nil, fmt.Errorf("name and category are required: %w", domain.ErrInvalidInput)
	case input.Price <= 0:
		return nil, fmt.Errorf("price must be positive: %w", domain.ErrInvalidInput)
	case input.OriginalPrice < input.Price:
		return nil, fmt.Errorf("original price below price: %w", domain.ErrInvalidInput)
	case input.BulkQuantity < 1:
		return nil, fmt.Errorf("bulk quantity must be at least 1: %w", domain.ErrInvalidInput)
	case input.Stock < 0:
		return nil, fmt.Errorf("stock cannot be negative: %w", domain.ErrInvalidInput)
	}

	product := &domain.Product{
		ID:            uuid.New(),
		WholesalerID:  wholesalerID,
		Name:          strings.TrimSpace(input.Name),
		Category:      strings.TrimSpace(input.Category),
		Unit:          input.Unit,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		BulkQuantity:  input.BulkQuantity,
		Stock:         input.Stock,
		GroupBuy:      input.GroupBuy,
		ImageURL:      input.ImageURL,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product listed",
		zap.String("product_id", product.ID.String()),
		zap.String("wholesaler_id", wholesalerID.String()),
	)

	view := domain.NewProductView(*product, "", 0, s.restockThreshold)
	return &view, nil
}

// UpdateStock restocks a listing owned by wholesalerID
func (s *catalogService) UpdateStock(ctx context.Context, wholesalerID, productID uuid.UUID, stock int) (*domain.ProductView, error) {
	if stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative: %w", domain.ErrInvalidInput)
	}

	product, err := s.productRepo.UpdateStock(ctx, productID, wholesalerID, stock)
	if err != nil {
		return nil, err
	}

	view := domain.NewProductView(*product, "", 0, s.restockThreshold)
	return &view, nil
}

// DeleteProduct removes a listing owned by wholesalerID
func (s *catalogService) DeleteProduct(ctx context.Context, wholesalerID, productID uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, productID, wholesalerID); err != nil {
		return err
	}

	s.logger.Info("Product removed", zap.String("product_id", productID.String()))
	return nil
}

// ListByWholesaler returns a wholesaler's own listings with stock status
func (s *catalogService) ListByWholesaler(ctx context.Context, wholesalerID uuid.UUID) ([]domain.ProductView, error) {
	products, err := s.productRepo.ListByWholesaler(ctx, wholesalerID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, domain.NewProductView(*p, "", 0, s.restockThreshold))
	}
	return views, nil
}
