package transport

import (
	"net/http"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"
	"sahaayak/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceOrderRequest represents an order for one product.
// VendorID is optional and must match the caller when given.
type PlaceOrderRequest struct {
	VendorID  *uuid.UUID `json:"vendorId"`
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	Quantity  int        `json:"quantity"`
}

// UpdateStatusRequest represents an order status change
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles order placement and history
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// RegisterRoutes registers order routes; all require a session
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/orders", h.List)
		r.With(middleware.RequireRole(h.logger, domain.RoleVendor)).Post("/orders", h.Place)
		r.With(middleware.RequireRole(h.logger, domain.RoleVendor)).Get("/recent-orders", h.Recent)
		r.With(middleware.RequireRole(h.logger, domain.RoleWholesaler)).Patch("/orders/{id}/status", h.UpdateStatus)
	})
}

func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	if req.VendorID != nil && *req.VendorID != caller.ID {
		middleware.RespondWithError(w, http.StatusForbidden, "cannot order on behalf of another vendor")
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), caller.ID, req.ProductID, req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), caller)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// Recent returns the vendor's reorder list
func (h *OrderHandler) Recent(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	items, err := h.orders.RecentItems(r.Context(), caller.ID, queryInt(r, "limit"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": items})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), caller.ID, id, domain.OrderStatus(req.Status))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
