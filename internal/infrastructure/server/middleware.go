package server

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpHandlers "github.com/restoreview/core/internal/adapters/http"
	"github.com/restoreview/core/internal/application/services"
	"github.com/restoreview/core/internal/ports"
)

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates a bound request and reports failures by JSON field name
func (cv *CustomValidator) Validate(i interface{}) error {
	return services.ValidateStruct(cv.validator, i)
}

// requestLogger logs every request through the application logger
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			l := s.logger.WithRequestID(values.RequestID)
			if values.Error != nil {
				l = l.WithError(values.Error)
			}
			l.LogHTTPRequest(
				values.Method,
				values.URI,
				values.UserAgent,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
			)
			return nil
		},
	})
}

// optionalAuth lets anonymous requests through. A request that does carry an
// Authorization header must present a valid bearer token, whose user id is
// then stored in the context.
func (s *Server) optionalAuth(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(httpHandlers.ContextUserID, claims.UserID)
			c.Set(httpHandlers.ContextUsername, claims.Username)

			return next(c)
		}
	}
}
