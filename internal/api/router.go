package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quartermaster-dev/quartermaster/internal/api/handlers"
	"github.com/quartermaster-dev/quartermaster/internal/auth"
	"github.com/quartermaster-dev/quartermaster/internal/config"
	"github.com/quartermaster-dev/quartermaster/internal/queue"
	"github.com/quartermaster-dev/quartermaster/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *gorm.DB, q queue.Queue) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	authenticator := auth.NewBasicAuthenticator(db, cfg.Auth.JWTSecret)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/version", handlers.GetVersion)
		public.POST("/auth/login", handlers.Login(authenticator))
	}

	// Initialize handlers
	assetSvc := service.New(db, q)
	activitySvc := service.NewActivityService(db)
	assetHandler := handlers.NewAssetHandler(assetSvc, activitySvc)
	activityHandler := handlers.NewActivityHandler(activitySvc)
	lookupHandler := handlers.NewLookupHandler(db)
	userHandler := handlers.NewUserHandler(db)

	// Protected routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(authenticator.Middleware())
	{
		// Asset endpoints
		protected.GET("/assets", assetHandler.ListAssets)
		protected.POST("/assets", assetHandler.CreateAsset)
		protected.GET("/assets/:id", assetHandler.GetAsset)
		protected.PUT("/assets/:id", assetHandler.UpdateAsset)
		protected.POST("/assets/:id/checkout", assetHandler.CheckoutAction)
		protected.POST("/assets/:id/archive", assetHandler.ArchiveAsset)
		protected.GET("/assets/:id/activity", assetHandler.GetAssetActivity)

		// Activity log endpoints
		protected.GET("/activity", activityHandler.ListActivity)

		// Lookup endpoints
		protected.GET("/users", lookupHandler.ListUsers)
		protected.POST("/users", userHandler.CreateUser)
		protected.GET("/departments", lookupHandler.ListDepartments)
		protected.POST("/departments", lookupHandler.CreateDepartment)
		protected.GET("/locations", lookupHandler.ListLocations)
		protected.POST("/locations", lookupHandler.CreateLocation)
		protected.GET("/suppliers", lookupHandler.ListSuppliers)
		protected.GET("/status-labels", lookupHandler.ListStatusLabels)
		protected.GET("/models", lookupHandler.ListModels)
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	slog.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
