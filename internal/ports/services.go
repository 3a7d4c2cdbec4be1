package ports

import (
	"context"
	"encoding/json"
	"io"

	"github.com/restoreview/core/internal/domain/entities"
)

// AuthService interface for login and token checks
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// RestaurantService interface for restaurant operations
type RestaurantService interface {
	ListRestaurants(ctx context.Context) ([]entities.Restaurant, error)
	CreateRestaurant(ctx context.Context, req CreateRestaurantRequest) (*entities.Restaurant, error)
	GetRestaurant(ctx context.Context, id int) (*entities.RestaurantDetail, error)
	GetRestaurantByName(ctx context.Context, name string) (*entities.RestaurantDetail, error)
	ListReviewsWithRestaurant(ctx context.Context) ([]entities.ReviewWithRestaurant, error)
}

// ReviewService interface for review operations
type ReviewService interface {
	CreateReview(ctx context.Context, req CreateReviewRequest) (*entities.Review, error)
	ListReviews(ctx context.Context) ([]entities.Review, error)
	ListReviewsFor(ctx context.Context, restaurantID int) ([]entities.Review, error)
}

// UserService interface for user operations
type UserService interface {
	RegisterUser(ctx context.Context, req CreateUserRequest) (*entities.User, error)
	ListUsers(ctx context.Context) ([]entities.User, error)
}

// ImageService interface for image operations
type ImageService interface {
	UploadImage(ctx context.Context, req UploadImageRequest) (*entities.Image, error)
	ListImagesFor(ctx context.Context, restaurantID int) ([]entities.Image, error)
}

// Request types

type CreateRestaurantRequest struct {
	Name        string `json:"name" form:"name" validate:"required"`
	Address     string `json:"address" form:"address" validate:"required"`
	Description string `json:"description" form:"description"`
}

type CreateReviewRequest struct {
	UserID       int             `json:"user_id"`
	RestaurantID int             `json:"restaurant_id"`
	Rating       json.RawMessage `json:"rating" validate:"rating"`
	Comment      string          `json:"comment" validate:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *entities.User `json:"user"`
}

type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

type UploadImageRequest struct {
	RestaurantID int
	OriginalName string
	ContentType  string
	Body         io.Reader
}
