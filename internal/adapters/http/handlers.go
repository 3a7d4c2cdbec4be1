package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/restoreview/core/internal/application/services"
	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/ports"
)

// Context keys set by the server's auth middleware
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// AuthHandler handles login
type AuthHandler struct {
	authService ports.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Exchange a username and password for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return validationResponse(c, err)
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.LogSecurityEvent("login_failed", c.RealIP(), map[string]interface{}{
			"username": req.Username,
		})
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, response)
}

// RestaurantHandler handles restaurant-related API requests
type RestaurantHandler struct {
	restaurantService *services.RestaurantService
	reviewService     *services.ReviewService
	logger            *logger.Logger
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(restaurantService *services.RestaurantService, reviewService *services.ReviewService, logger *logger.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		restaurantService: restaurantService,
		reviewService:     reviewService,
		logger:            logger,
	}
}

// ListRestaurants godoc
// @Summary List restaurants
// @Tags restaurants
// @Produce json
// @Success 200 {array} entities.Restaurant
// @Router /restaurants [get]
func (h *RestaurantHandler) ListRestaurants(c echo.Context) error {
	restaurants, err := h.restaurantService.ListRestaurants(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, restaurants)
}

// CreateRestaurant godoc
// @Summary Create a restaurant
// @Tags restaurants
// @Accept json
// @Produce json
// @Param request body ports.CreateRestaurantRequest true "Restaurant data"
// @Success 201 {object} entities.Restaurant
// @Failure 400 {object} ErrorResponse
// @Router /restaurants [post]
func (h *RestaurantHandler) CreateRestaurant(c echo.Context) error {
	var req ports.CreateRestaurantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return validationResponse(c, err)
	}

	restaurant, err := h.restaurantService.CreateRestaurant(c.Request().Context(), req)
	if err != nil {
		h.logger.Errorw("Create restaurant failed", "error", err)
		return apiError(c, err)
	}

	return c.JSON(http.StatusCreated, restaurant)
}

// GetRestaurant godoc
// @Summary Get restaurant by ID with its reviews and images
// @Tags restaurants
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {object} entities.RestaurantDetail
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /restaurants/{id} [get]
func (h *RestaurantHandler) GetRestaurant(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	detail, err := h.restaurantService.GetRestaurant(c.Request().Context(), id)
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, detail)
}

// ListRestaurantReviews godoc
// @Summary List reviews of a restaurant
// @Tags reviews
// @Produce json
// @Param id path int true "Restaurant ID"
// @Success 200 {array} entities.Review
// @Failure 404 {object} ErrorResponse
// @Router /restaurants/{id}/reviews [get]
func (h *RestaurantHandler) ListRestaurantReviews(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	reviews, err := h.reviewService.ListReviewsFor(c.Request().Context(), id)
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusOK, reviews)
}

// CreateReview godoc
// @Summary Add a review to a restaurant
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path int true "Restaurant ID"
// @Param request body ReviewRequest true "Review data"
// @Param Authorization header string false "Bearer token; sets user_id"
// @Success 201 {object} entities.Review
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /restaurants/{id}/reviews [post]
func (h *RestaurantHandler) CreateReview(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	var body ReviewRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	req := ports.CreateReviewRequest{
		UserID:       body.UserID,
		RestaurantID: id,
		Rating:       body.Rating,
		Comment:      body.Comment,
	}
	// An authenticated caller always reviews as themselves
	if userID, ok := c.Get(ContextUserID).(int); ok {
		req.UserID = userID
	}
	if err := c.Validate(&req); err != nil {
		return validationResponse(c, err)
	}

	review, err := h.reviewService.CreateReview(c.Request().Context(), req)
	if err != nil {
		return apiError(c, err)
	}

	return c.JSON(http.StatusCreated, review)
}

// ReviewHandler handles review listing
type ReviewHandler struct {
	restaurantService *services.RestaurantService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(restaurantService *services.RestaurantService) *ReviewHandler {
	return &ReviewHandler{restaurantService: restaurantService}
}

// ListReviews godoc
// @Summary List every review with its restaurant name
// @Tags reviews
// @Produce json
// @Success 200 {array} entities.ReviewWithRestaurant
// @Router /reviews [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	reviews, err := h.restaurantService.ListReviewsWithRestaurant(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}

// UserHandler handles user-related requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// CreateUser godoc
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body ports.CreateUserRequest true "User data"
// @Success 201 {object} entities.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req ports.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return validationResponse(c, err)
	}

	user, err := h.userService.RegisterUser(c.Request().Context(), req)
	if err != nil {
		h.logger.Errorw("Create user failed", "error", err)
		return apiError(c, err)
	}

	return c.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} entities.User
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Utility functions and helper types

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid restaurant ID")
	}
	return id, nil
}

// apiError maps domain errors to HTTP errors; anything else is left to the
// server's error handler as a 500.
func apiError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, entities.ErrValidation):
		return validationResponse(c, err)
	case errors.Is(err, entities.ErrRestaurantNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Restaurant not found")
	case errors.Is(err, entities.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, entities.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entities.ErrImageTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, entities.ErrInvalidImage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}

func validationResponse(c echo.Context, err error) error {
	resp := ErrorResponse{Message: entities.ErrValidation.Error()}
	var verr *entities.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	return c.JSON(http.StatusBadRequest, resp)
}

// Request/Response types

// ReviewRequest is the body of a review submitted through the API
type ReviewRequest struct {
	UserID  int             `json:"user_id"`
	Rating  json.RawMessage `json:"rating" swaggertype:"string" example:"5"`
	Comment string          `json:"comment"`
}

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}
