package transport

import (
	"net/http"

	"sahaayak/internal/middleware"
	"sahaayak/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DirectoryHandler lists approved vendors and wholesalers
type DirectoryHandler struct {
	directory service.DirectoryService
	logger    *zap.Logger
}

// NewDirectoryHandler creates a new DirectoryHandler
func NewDirectoryHandler(directory service.DirectoryService, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{directory: directory, logger: logger}
}

// RegisterRoutes registers the public directory routes
func (h *DirectoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/vendors", h.ListVendors)
	r.Get("/wholesalers", h.ListWholesalers)
}

func (h *DirectoryHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.directory.ListVendors(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"vendors": vendors})
}

func (h *DirectoryHandler) ListWholesalers(w http.ResponseWriter, r *http.Request) {
	wholesalers, err := h.directory.ListWholesalers(r.Context(), r.URL.Query().Get("sortBy"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"wholesalers": wholesalers})
}
