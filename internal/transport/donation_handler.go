package transport

import (
	"net/http"

	"sahaayak/internal/domain"
	"sahaayak/internal/middleware"
	"sahaayak/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DonationRequest represents a leftover-food donation form
type DonationRequest struct {
	DonorName  string `json:"donorName" validate:"max=255"`
	FoodType   string `json:"foodType" validate:"required,min=3,max=255"`
	Quantity   string `json:"quantity" validate:"required,max=100"`
	ExpiryTime string `json:"expiryTime" validate:"max=100"`
	Location   string `json:"location" validate:"required,min=5"`
}

// DonationResponse wraps a newly offered donation
type DonationResponse struct {
	Success  bool             `json:"success"`
	Donation *domain.Donation `json:"donation"`
}

// DonationHandler serves the food donation board
type DonationHandler struct {
	donations service.DonationService
	logger    *zap.Logger
}

// NewDonationHandler creates a new DonationHandler
func NewDonationHandler(donations service.DonationService, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, logger: logger}
}

// RegisterRoutes registers donation routes; anyone may browse, any signed-in account may donate
func (h *DonationHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/food-donations", h.List)
	r.With(authMiddleware).Post("/food-donations", h.Create)
}

func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.DonationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.DonationStatus(raw)
		status = &s
	}

	donations, err := h.donations.List(r.Context(), status)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"donations": donations})
}

func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req DonationRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	donation, err := h.donations.Create(r.Context(), caller, service.DonationInput{
		DonorName:  req.DonorName,
		FoodType:   req.FoodType,
		Quantity:   req.Quantity,
		ExpiryTime: req.ExpiryTime,
		Location:   req.Location,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, DonationResponse{Success: true, Donation: donation})
}
