package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/ports"
)

// ReviewService handles review-related operations
type ReviewService struct {
	reviewRepo     ports.ReviewRepository
	restaurantRepo ports.RestaurantRepository
	validate       *validator.Validate
	logger         *logger.Logger
}

var _ ports.ReviewService = (*ReviewService)(nil)

// NewReviewService creates a new review service
func NewReviewService(reviewRepo ports.ReviewRepository, restaurantRepo ports.RestaurantRepository, v *validator.Validate, logger *logger.Logger) *ReviewService {
	return &ReviewService{
		reviewRepo:     reviewRepo,
		restaurantRepo: restaurantRepo,
		validate:       v,
		logger:         logger,
	}
}

// CreateReview validates and stores a review. The restaurant must exist; the
// user id is stored as given.
func (s *ReviewService) CreateReview(ctx context.Context, req ports.CreateReviewRequest) (*entities.Review, error) {
	if err := ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}

	if _, ok := s.restaurantRepo.FindRestaurantByID(req.RestaurantID); !ok {
		return nil, entities.ErrRestaurantNotFound
	}

	review, err := s.reviewRepo.AddReview(req.UserID, req.RestaurantID, req.Rating, req.Comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Infow("Review created",
		"review_id", review.ID,
		"restaurant_id", review.RestaurantID,
		"user_id", review.UserID,
	)

	return &review, nil
}

// ListReviews returns every review in insertion order
func (s *ReviewService) ListReviews(ctx context.Context) ([]entities.Review, error) {
	return s.reviewRepo.ListReviews(), nil
}

// ListReviewsFor returns the reviews of one restaurant
func (s *ReviewService) ListReviewsFor(ctx context.Context, restaurantID int) ([]entities.Review, error) {
	if _, ok := s.restaurantRepo.FindRestaurantByID(restaurantID); !ok {
		return nil, entities.ErrRestaurantNotFound
	}
	return s.reviewRepo.ListReviewsFor(restaurantID), nil
}
