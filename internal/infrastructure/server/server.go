package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/restoreview/core/docs"
	httpHandlers "github.com/restoreview/core/internal/adapters/http"
	"github.com/restoreview/core/internal/application/services"
	"github.com/restoreview/core/internal/infrastructure/config"
	"github.com/restoreview/core/internal/infrastructure/logger"
	"github.com/restoreview/core/internal/infrastructure/metrics"
	"github.com/restoreview/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	store   ports.DocumentStore
	metrics *metrics.Metrics
}

// New creates a new server instance. m may be nil when metrics are disabled.
func New(cfg *config.Config, store ports.DocumentStore, m *metrics.Metrics, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	v := services.NewValidator()
	e.Validator = &CustomValidator{validator: v}

	renderer, err := httpHandlers.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	e.Renderer = renderer

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize services
	restaurantService := services.NewRestaurantService(store, store, store, v, appLogger.WithComponent("restaurants"))
	reviewService := services.NewReviewService(store, store, v, appLogger.WithComponent("reviews"))
	userService := services.NewUserService(store, v, appLogger.WithComponent("users"))
	authService := services.NewAuthService(store, v, cfg.JWT, appLogger.WithComponent("auth"))
	imageService := services.NewImageService(store, store, cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes, appLogger.WithComponent("images"))

	// Initialize handlers
	handlers := routeHandlers{
		auth:       httpHandlers.NewAuthHandler(authService, appLogger),
		web:        httpHandlers.NewWebHandler(restaurantService, reviewService, cfg.Security.CookieSecure, appLogger),
		restaurant: httpHandlers.NewRestaurantHandler(restaurantService, reviewService, appLogger),
		review:     httpHandlers.NewReviewHandler(restaurantService),
		user:       httpHandlers.NewUserHandler(userService, appLogger),
		image:      httpHandlers.NewImageHandler(imageService, appLogger),
	}

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		store:   store,
		metrics: m,
	}

	server.setupMiddleware()

	if cfg.Metrics.Enabled && m != nil {
		server.setupMetrics()
	}

	server.setupRoutes(handlers, authService, imageService.UploadDir())

	return server, nil
}

type routeHandlers struct {
	auth       *httpHandlers.AuthHandler
	web        *httpHandlers.WebHandler
	restaurant *httpHandlers.RestaurantHandler
	review     *httpHandlers.ReviewHandler
	user       *httpHandlers.UserHandler
	image      *httpHandlers.ImageHandler
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))

	s.echo.Use(s.requestLogger())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / s.config.Security.RateLimitWindow.Seconds()),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: s.config.Server.WriteTimeout,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h routeHandlers, authService ports.AuthService, uploadDir string) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Stored images
	s.echo.Static("/uploads", uploadDir)

	// HTML pages
	s.echo.GET("/", h.web.Index)
	s.echo.GET("/add_restaurant", h.web.AddRestaurantForm)
	s.echo.POST("/add_restaurant", h.web.AddRestaurant)
	s.echo.GET("/restaurant/:name", h.web.ViewRestaurant)
	s.echo.GET("/add_review/:name", h.web.AddReviewForm)
	s.echo.POST("/add_review/:name", h.web.AddReview)
	s.echo.GET("/all_reviews", h.web.AllReviews)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	v1.POST("/auth/login", h.auth.Login)

	restaurantGroup := v1.Group("/restaurants")
	restaurantGroup.GET("", h.restaurant.ListRestaurants)
	restaurantGroup.POST("", h.restaurant.CreateRestaurant)
	restaurantGroup.GET("/:id", h.restaurant.GetRestaurant)
	restaurantGroup.GET("/:id/reviews", h.restaurant.ListRestaurantReviews)
	restaurantGroup.POST("/:id/reviews", h.restaurant.CreateReview, s.optionalAuth(authService))
	restaurantGroup.GET("/:id/images", h.image.ListImages)
	restaurantGroup.POST("/:id/images", h.image.UploadImage)

	v1.GET("/reviews", h.review.ListReviews)

	userGroup := v1.Group("/users")
	userGroup.GET("", h.user.ListUsers)
	userGroup.POST("", h.user.CreateUser)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.metrics.RegisterStore(s.store.Stats)
	s.echo.Use(s.metrics.Middleware())
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.checkStorage(); err != nil {
		status = "error"
		checks["storage"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["storage"] = map[string]interface{}{
			"status": "ok",
			"path":   s.store.Path(),
			"stats":  s.store.Stats(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.checkStorage(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// checkStorage verifies the directory holding the document is still there.
func (s *Server) checkStorage() error {
	dir := filepath.Dir(s.store.Path())
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = map[string]interface{}{"message": he.Message}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
