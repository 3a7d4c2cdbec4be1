package ports

import (
	"encoding/json"

	"github.com/restoreview/core/internal/domain/entities"
)

// RestaurantRepository defines the interface for restaurant data operations
type RestaurantRepository interface {
	ListRestaurants() []entities.Restaurant
	FindRestaurantByID(id int) (entities.Restaurant, bool)
	FindRestaurantByName(name string) (entities.Restaurant, bool)
	AddRestaurant(name, address, description string) (entities.Restaurant, error)
}

// ReviewRepository defines the interface for review data operations
type ReviewRepository interface {
	ListReviews() []entities.Review
	ListReviewsFor(restaurantID int) []entities.Review
	AddReview(userID, restaurantID int, rating json.RawMessage, comment string) (entities.Review, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	ListUsers() []entities.User
	FindUserByUsername(username string) (entities.User, bool)
	AddUser(user entities.User) (entities.User, error)
	AddUniqueUser(user entities.User) (entities.User, error)
}

// ImageRepository defines the interface for image data operations
type ImageRepository interface {
	ListImages() []entities.Image
	ListImagesFor(restaurantID int) []entities.Image
	AddImage(image entities.Image) (entities.Image, error)
}

// DocumentStats holds the number of records per collection.
type DocumentStats struct {
	Users       int `json:"users"`
	Restaurants int `json:"restaurants"`
	Reviews     int `json:"reviews"`
	Images      int `json:"images"`
}

// DocumentStore is the whole JSON-backed store.
type DocumentStore interface {
	RestaurantRepository
	ReviewRepository
	UserRepository
	ImageRepository

	Path() string
	Stats() DocumentStats
	Save() error
}
