package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/restoreview/core/internal/application/services"
	"github.com/restoreview/core/internal/domain/entities"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/ports"
)

const lastVisitedCookie = "last_visited"

// WebHandler serves the HTML pages
type WebHandler struct {
	restaurantService *services.RestaurantService
	reviewService     *services.ReviewService
	secureCookies     bool
	logger            *logger.Logger
}

// NewWebHandler creates a new web handler
func NewWebHandler(restaurantService *services.RestaurantService, reviewService *services.ReviewService, secureCookies bool, logger *logger.Logger) *WebHandler {
	return &WebHandler{
		restaurantService: restaurantService,
		reviewService:     reviewService,
		secureCookies:     secureCookies,
		logger:            logger,
	}
}

// Index lists all restaurants
func (h *WebHandler) Index(c echo.Context) error {
	restaurants, err := h.restaurantService.ListRestaurants(c.Request().Context())
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "index.html", echo.Map{
		"title":       "Restaurants",
		"flashes":     popFlashes(c),
		"restaurants": restaurants,
		"lastVisited": lastVisited(c),
	})
}

// AddRestaurantForm renders the new restaurant form
func (h *WebHandler) AddRestaurantForm(c echo.Context) error {
	return c.Render(http.StatusOK, "add_restaurant.html", echo.Map{
		"title":   "Add restaurant",
		"flashes": popFlashes(c),
	})
}

// AddRestaurant handles the new restaurant form submission
func (h *WebHandler) AddRestaurant(c echo.Context) error {
	req := ports.CreateRestaurantRequest{
		Name:        c.FormValue("name"),
		Address:     c.FormValue("address"),
		Description: c.FormValue("description"),
	}

	restaurant, err := h.restaurantService.CreateRestaurant(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrValidation) {
			addFlash(c, h.secureCookies, "Please fill in all fields.")
			return c.Redirect(http.StatusFound, "/add_restaurant")
		}
		return err
	}

	h.logger.LogVisitorAction("add_restaurant", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"ip":            c.RealIP(),
	})

	addFlash(c, h.secureCookies, fmt.Sprintf("Restaurant %s added!", restaurant.Name))
	return c.Redirect(http.StatusFound, "/")
}

// ViewRestaurant shows one restaurant with its reviews and remembers it as last visited
func (h *WebHandler) ViewRestaurant(c echo.Context) error {
	name := pathParam(c, "name")

	detail, err := h.restaurantService.GetRestaurantByName(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, entities.ErrRestaurantNotFound) {
			return c.String(http.StatusNotFound, "Restaurant not found")
		}
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     lastVisitedCookie,
		Value:    url.QueryEscape(name),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Render(http.StatusOK, "restaurant.html", echo.Map{
		"title":   detail.Restaurant.Name,
		"flashes": popFlashes(c),
		"detail":  detail,
	})
}

// AddReviewForm renders the review form for a restaurant
func (h *WebHandler) AddReviewForm(c echo.Context) error {
	name := pathParam(c, "name")

	if _, err := h.restaurantService.GetRestaurantByName(c.Request().Context(), name); err != nil {
		if errors.Is(err, entities.ErrRestaurantNotFound) {
			return c.String(http.StatusNotFound, "Restaurant not found")
		}
		return err
	}

	return c.Render(http.StatusOK, "add_review.html", echo.Map{
		"title":          "Review " + name,
		"flashes":        popFlashes(c),
		"restaurantName": name,
	})
}

// AddReview handles the review form submission for a restaurant
func (h *WebHandler) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	name := pathParam(c, "name")

	detail, err := h.restaurantService.GetRestaurantByName(ctx, name)
	if err != nil {
		if errors.Is(err, entities.ErrRestaurantNotFound) {
			return c.String(http.StatusNotFound, "Restaurant not found")
		}
		return err
	}

	req := ports.CreateReviewRequest{
		RestaurantID: detail.Restaurant.ID,
		Comment:      c.FormValue("comment"),
	}
	if userID, err := strconv.Atoi(c.FormValue("user_id")); err == nil {
		req.UserID = userID
	}
	if rating := c.FormValue("rating"); rating != "" {
		if req.Rating, err = entities.RatingValue(rating); err != nil {
			return err
		}
	}

	review, err := h.reviewService.CreateReview(ctx, req)
	if err != nil {
		if errors.Is(err, entities.ErrValidation) {
			addFlash(c, h.secureCookies, "Please fill in both fields.")
			return c.Redirect(http.StatusFound, "/add_review/"+url.PathEscape(name))
		}
		return err
	}

	h.logger.LogVisitorAction("add_review", map[string]interface{}{
		"review_id":     review.ID,
		"restaurant_id": review.RestaurantID,
		"ip":            c.RealIP(),
	})

	addFlash(c, h.secureCookies, fmt.Sprintf("Review for %s added!", name))
	return c.Redirect(http.StatusFound, "/restaurant/"+url.PathEscape(name))
}

// AllReviews lists every review with its restaurant name
func (h *WebHandler) AllReviews(c echo.Context) error {
	reviews, err := h.restaurantService.ListReviewsWithRestaurant(c.Request().Context())
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "all_reviews.html", echo.Map{
		"title":   "All reviews",
		"flashes": popFlashes(c),
		"reviews": reviews,
	})
}

// pathParam returns the decoded value of a path parameter. Echo routes on the
// raw path only when the request URL carries one (e.g. an escaped slash), and
// only then is the parameter still escaped.
func pathParam(c echo.Context, name string) string {
	value := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return value
	}
	if v, err := url.PathUnescape(value); err == nil {
		return v
	}
	return value
}

func lastVisited(c echo.Context) string {
	cookie, err := c.Cookie(lastVisitedCookie)
	if err != nil {
		return ""
	}
	if v, err := url.QueryUnescape(cookie.Value); err == nil {
		return v
	}
	return cookie.Value
}
