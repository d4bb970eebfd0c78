package routes

import (
	"context"
	"net/http"
	"time"

	"identity-service/internal/config"
	"identity-service/internal/delivery/http/handler"
	"identity-service/internal/logger"
	"identity-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// UserService is everything the HTTP layer needs from the user use cases.
type UserService interface {
	handler.UserService
	middleware.Authenticator
}

// SetupRoutes builds the engine. ctx bounds the background work of the rate
// limiters.
func SetupRoutes(ctx context.Context, cfg *config.Config, db HealthChecker, users UserService) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order: recovery, request ID, logging, security headers, CORS, request size limit, general rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(ctx, "general", cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.Health(checkCtx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	userHandler := handler.NewUserHandler(users)

	v1 := router.Group("/api/v1")
	auth := v1.Group("/auth")
	{
		credentials := auth.Group("")
		credentials.Use(middleware.RateLimitMiddleware(ctx, "auth", cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst))
		userHandler.RegisterRoutes(credentials)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(users))
		userHandler.RegisterProtectedRoutes(protected)
	}

	logger.Info("All routes initialized")
	return router
}
