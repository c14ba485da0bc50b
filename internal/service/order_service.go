package service

import (
	"context"
	"errors"
	"fmt"

	"sahaayak/internal/domain"
	"sahaayak/internal/events"
	"sahaayak/internal/metrics"
	"sahaayak/internal/repository"
	"sahaayak/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const DefaultRecentItemsLimit = 10

// OrderService places orders against catalog stock and tracks their lifecycle
type OrderService interface {
	PlaceOrder(ctx context.Context, vendorID, productID uuid.UUID, quantity int) (*domain.Order, error)
	ListOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error)
	RecentItems(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.RecentItem, error)
	UpdateStatus(ctx context.Context, wholesalerID, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, publisher events.Publisher, logger *zap.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrder reserves quantity units of the product and records a pending order
func (s *orderService) PlaceOrder(ctx context.Context, vendorID, productID uuid.UUID, quantity int) (order *domain.Order, err error) {
	ctx, span := telemetry.StartSpan(ctx, "order.place",
		attribute.String("vendor_id", vendorID.String()),
		attribute.String("product_id", productID.String()),
		attribute.Int("quantity", quantity),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if quantity < 1 {
		metrics.OrdersFailedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, domain.ErrInvalidQuantity
	}

	order = &domain.Order{
		ID:        uuid.New(),
		VendorID:  vendorID,
		ProductID: productID,
		Quantity:  quantity,
	}

	if err := s.orderRepo.Place(ctx, order); err != nil {
		metrics.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.Int("quantity", quantity),
		zap.Float64("total", order.Total),
	)

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeOrderPlaced, vendorID, order))
	return order, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "other"
	}
}

// ListOrders returns the caller's order history, newest first
func (s *orderService) ListOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error) {
	switch identity.Role {
	case domain.RoleVendor:
		return s.orderRepo.ListByVendor(ctx, identity.ID)
	case domain.RoleWholesaler:
		return s.orderRepo.ListByWholesaler(ctx, identity.ID)
	default:
		return nil, domain.ErrNotAuthorized
	}
}

// RecentItems lists products the vendor ordered before, most recent first
func (s *orderService) RecentItems(ctx context.Context, vendorID uuid.UUID, limit int) ([]*domain.RecentItem, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultRecentItemsLimit
	}
	return s.orderRepo.RecentItems(ctx, vendorID, limit)
}

// UpdateStatus moves an order received by wholesalerID to status
func (s *orderService) UpdateStatus(ctx context.Context, wholesalerID, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrInvalidTransition)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, orderID, wholesalerID, status)
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(status)).Inc()
	s.logger.Info("Order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(status)),
	)

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeOrderStatus, order.VendorID, order))
	return order, nil
}

// publishEvent delivers an event after commit; failures are logged and counted, never returned
func publishEvent(ctx context.Context, publisher events.Publisher, logger *zap.Logger, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublishFailedTotal.WithLabelValues(event.Type).Inc()
		logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("vendor_id", event.VendorID.String()),
			zap.Error(err),
		)
	}
}
