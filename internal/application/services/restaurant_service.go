package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/ports"
)

// RestaurantService handles restaurant-related operations
type RestaurantService struct {
	restaurantRepo ports.RestaurantRepository
	reviewRepo     ports.ReviewRepository
	imageRepo      ports.ImageRepository
	validate       *validator.Validate
	logger         *logger.Logger
}

var _ ports.RestaurantService = (*RestaurantService)(nil)

// NewRestaurantService creates a new restaurant service
func NewRestaurantService(restaurantRepo ports.RestaurantRepository, reviewRepo ports.ReviewRepository, imageRepo ports.ImageRepository, v *validator.Validate, logger *logger.Logger) *RestaurantService {
	return &RestaurantService{
		restaurantRepo: restaurantRepo,
		reviewRepo:     reviewRepo,
		imageRepo:      imageRepo,
		validate:       v,
		logger:         logger,
	}
}

// ListRestaurants returns every restaurant in insertion order
func (s *RestaurantService) ListRestaurants(ctx context.Context) ([]entities.Restaurant, error) {
	return s.restaurantRepo.ListRestaurants(), nil
}

// CreateRestaurant validates and stores a new restaurant
func (s *RestaurantService) CreateRestaurant(ctx context.Context, req ports.CreateRestaurantRequest) (*entities.Restaurant, error) {
	if err := ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurantRepo.AddRestaurant(req.Name, req.Address, req.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}

	s.logger.Infow("Restaurant created", "restaurant_id", restaurant.ID, "name", restaurant.Name)

	return &restaurant, nil
}

// GetRestaurant retrieves a restaurant by ID with its reviews
func (s *RestaurantService) GetRestaurant(ctx context.Context, id int) (*entities.RestaurantDetail, error) {
	restaurant, ok := s.restaurantRepo.FindRestaurantByID(id)
	if !ok {
		return nil, entities.ErrRestaurantNotFound
	}
	return s.detail(restaurant), nil
}

// GetRestaurantByName retrieves a restaurant by exact name with its reviews
func (s *RestaurantService) GetRestaurantByName(ctx context.Context, name string) (*entities.RestaurantDetail, error) {
	restaurant, ok := s.restaurantRepo.FindRestaurantByName(name)
	if !ok {
		return nil, entities.ErrRestaurantNotFound
	}
	return s.detail(restaurant), nil
}

func (s *RestaurantService) detail(restaurant entities.Restaurant) *entities.RestaurantDetail {
	return &entities.RestaurantDetail{
		Restaurant: restaurant,
		Reviews:    s.reviewRepo.ListReviewsFor(restaurant.ID),
		Images:     s.imageRepo.ListImagesFor(restaurant.ID),
	}
}

// ListReviewsWithRestaurant joins every review with its restaurant name.
// Reviews pointing at a missing restaurant get an empty name.
func (s *RestaurantService) ListReviewsWithRestaurant(ctx context.Context) ([]entities.ReviewWithRestaurant, error) {
	names := make(map[int]string)
	for _, r := range s.restaurantRepo.ListRestaurants() {
		if _, ok := names[r.ID]; !ok {
			names[r.ID] = r.Name
		}
	}

	reviews := s.reviewRepo.ListReviews()
	joined := make([]entities.ReviewWithRestaurant, 0, len(reviews))
	for _, rev := range reviews {
		joined = append(joined, entities.ReviewWithRestaurant{
			Review:     rev,
			Restaurant: names[rev.RestaurantID],
		})
	}
	return joined, nil
}
