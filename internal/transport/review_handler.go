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

// AddReviewRequest represents a vendor's review of a wholesaler
type AddReviewRequest struct {
	WholesalerID uuid.UUID `json:"wholesalerId" validate:"required"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment" validate:"max=2000"`
}

// ReplyRequest represents a wholesaler's reply
type ReplyRequest struct {
	Reply string `json:"reply" validate:"required,max=2000"`
}

// ReviewHandler handles reviews and replies
type ReviewHandler struct {
	reviews service.ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// RegisterRoutes registers review routes; listing is public
func (h *ReviewHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/reviews", h.List)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.With(middleware.RequireRole(h.logger, domain.RoleVendor)).Post("/reviews", h.Add)
		r.With(middleware.RequireRole(h.logger, domain.RoleWholesaler)).Post("/reviews/{id}/reply", h.Reply)
	})
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	var wholesalerID *uuid.UUID
	if raw := r.URL.Query().Get("wholesalerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid wholesalerId")
			return
		}
		wholesalerID = &id
	}

	reviews, err := h.reviews.ListReviews(r.Context(), wholesalerID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req AddReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	review, err := h.reviews.AddReview(r.Context(), caller.ID, req.WholesalerID, req.Rating, req.Comment)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) Reply(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req ReplyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	review, err := h.reviews.ReplyToReview(r.Context(), caller.ID, id, req.Reply)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, review)
}
