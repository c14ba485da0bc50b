package transport

import (
	"net/http"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"
	"sahaayak/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents a new listing
type CreateProductRequest struct {
	Name          string  `json:"name" validate:"required"`
	Category      string  `json:"category" validate:"required"`
	Unit          string  `json:"unit" validate:"required"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	OriginalPrice float64 `json:"originalPrice" validate:"gte=0"`
	BulkQuantity  int     `json:"bulkQuantity" validate:"gte=0"`
	Stock         int     `json:"stock" validate:"gte=0"`
	GroupBuy      bool    `json:"groupBuy"`
	ImageURL      string  `json:"imageUrl"`
}

// UpdateStockRequest represents a restock
type UpdateStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// CatalogHandler serves the product catalog
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers public catalog routes and the wholesaler's listing management
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/products", h.Query)
	r.Get("/budget-items", h.Query)
	r.Get("/products/{id}", h.Get)
	r.Post("/products/{id}/like", h.Like)
	r.Get("/categories", h.Categories)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireRole(h.logger, domain.RoleWholesaler))
		r.Post("/products", h.Create)
		r.Patch("/products/{id}/stock", h.UpdateStock)
		r.Delete("/products/{id}", h.Delete)
		r.Get("/wholesaler/products", h.ListOwn)
	})
}

// Query handles catalog search: maxBudget, category and sortBy
func (h *CatalogHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.ParseFilter(q.Get("maxBudget"), q.Get("category"), q.Get("sortBy"))

	items, err := h.catalog.Query(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.catalog.Like(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// Create lists a new product for the calling wholesaler
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	item, err := h.catalog.CreateProduct(r.Context(), caller.ID, service.CreateProductInput{
		Name:          req.Name,
		Category:      req.Category,
		Unit:          req.Unit,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		BulkQuantity:  req.BulkQuantity,
		Stock:         req.Stock,
		GroupBuy:      req.GroupBuy,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

func (h *CatalogHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	item, err := h.catalog.UpdateStock(r.Context(), caller.ID, id, *req.Stock)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), caller.ID, id); err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOwn returns the calling wholesaler's inventory
func (h *CatalogHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	items, err := h.catalog.ListByWholesaler(r.Context(), caller.ID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"inventory": items})
}
