package service

import (
	"context"
	"fmt"
	"strings"

	"sahaayak/internal/domain"
	"sahaayak/internal/events"
	"sahaayak/internal/metrics"
	"sahaayak/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService records vendor reviews and wholesaler replies
type ReviewService interface {
	AddReview(ctx context.Context, vendorID, wholesalerID uuid.UUID, rating int, comment string) (*domain.Review, error)
	ReplyToReview(ctx context.Context, wholesalerID, reviewID uuid.UUID, text string) (*domain.Review, error)
	ListReviews(ctx context.Context, wholesalerID *uuid.UUID) ([]*domain.Review, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(reviewRepo repository.ReviewRepository, publisher events.Publisher, logger *zap.Logger) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// AddReview rates a wholesaler; a vendor may review the same wholesaler more than once
func (s *reviewService) AddReview(ctx context.Context, vendorID, wholesalerID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, domain.ErrInvalidRating
	}

	review := &domain.Review{
		ID:           uuid.New(),
		WholesalerID: wholesalerID,
		VendorID:     vendorID,
		Rating:       rating,
		Comment:      strings.TrimSpace(comment),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	metrics.ReviewsAddedTotal.Inc()
	s.logger.Info("Review added",
		zap.String("review_id", review.ID.String()),
		zap.String("wholesaler_id", wholesalerID.String()),
		zap.Int("rating", rating),
	)

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeReviewAdded, vendorID, review))
	return review, nil
}

// ReplyToReview sets the one reply a wholesaler may give to a review of them
func (s *reviewService) ReplyToReview(ctx context.Context, wholesalerID, reviewID uuid.UUID, text string) (*domain.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("reply text is required: %w", domain.ErrInvalidInput)
	}

	return s.reviewRepo.Reply(ctx, reviewID, wholesalerID, text)
}

func (s *reviewService) ListReviews(ctx context.Context, wholesalerID *uuid.UUID) ([]*domain.Review, error) {
	return s.reviewRepo.List(ctx, wholesalerID)
}
