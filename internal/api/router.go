package api

import (
	"wasender/internal/metrics"
	"wasender/internal/middleware"
	"wasender/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(queueHandler *QueueHandler, authHandler *AuthHandler, apiKeyRepo repository.APIKeyInterface, rdb *redis.Client, requestsPerSecond int, env string) *gin.Engine {
	r := gin.New()

	// Global Middleware
	r.Use(
		middleware.CorsMiddleware(),
		middleware.RequestID(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
		middleware.TraceMiddleware(),
	)
	r.SetTrustedProxies(nil)

	// Public Routes
	r.GET("/health", queueHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth Routes (Public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Auth Routes (Protected)
	authProtected := r.Group("/v1/auth")
	authProtected.Use(middleware.JWTMiddleware(env == "development"))
	{
		authProtected.GET("/me", authHandler.GetProfile)
		authProtected.POST("/logout", authHandler.Logout)
	}

	// Queue Routes (Control Plane)
	// Callers present a client API key plus an operator JWT.
	queue := r.Group("/v1/queue")
	queue.Use(
		middleware.APIKeyMiddleware(apiKeyRepo),
		middleware.JWTMiddleware(env == "development"),
	)

	// Rate Limiter for Write Operations
	writeLimiter := middleware.RateLimitMiddleware(rdb, requestsPerSecond)

	{
		queue.POST("/enqueue", writeLimiter, queueHandler.Enqueue)
		queue.POST("/process", writeLimiter, queueHandler.Process)
		queue.GET("/jobs/:id/stats", queueHandler.Stats)
		queue.POST("/jobs/:id/retry-failed", writeLimiter, queueHandler.RetryFailed)
	}
	return r
}
