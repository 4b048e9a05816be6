package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/neusse/ez-orders/internal/auth"
	"github.com/neusse/ez-orders/internal/brokerage"
	"github.com/neusse/ez-orders/internal/database"
	"github.com/neusse/ez-orders/internal/ezorders"
	"github.com/neusse/ez-orders/internal/orders"
	"github.com/neusse/ez-orders/internal/templates"
	"github.com/neusse/ez-orders/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// configFromEnv builds the facade configuration from environment variables,
// falling back to the safe defaults.
func configFromEnv() ezorders.Config {
	config := ezorders.DefaultConfig()

	if v := os.Getenv("EZ_MAX_ORDER_VALUE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			config.MaxOrderValue = parsed
		}
	}
	if v := os.Getenv("EZ_REQUIRE_CONFIRMATION"); v != "" {
		config.RequireConfirmation = v == "true"
	}
	if v := os.Getenv("EZ_DEFAULT_TIME_IN_FORCE"); v != "" {
		switch v {
		case "GTC":
			config.DefaultTimeInForce = orders.GTC
		case "IOC":
			config.DefaultTimeInForce = orders.IOC
		case "FOK":
			config.DefaultTimeInForce = orders.FOK
		}
	}

	return config
}

// main initializes and runs the order API server with graceful shutdown
// support. It sets up all required services, database connections, and API
// routes.
func main() {
	// Load optional .env before reading anything
	if err := godotenv.Load(); err == nil {
		zlog.Debug().Msg("loaded environment from .env")
	}

	// Initialize database
	db, err := database.NewDatabase(os.Getenv("EZ_DB_PATH"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	jwtSecret := os.Getenv("EZ_JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "ez-orders-dev-secret"
		zlog.Warn().Msg("EZ_JWT_SECRET not set, using development secret")
	}

	// Initialize services and handlers
	authService := auth.NewService(jwtSecret, 24*time.Hour)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	templateService := templates.NewService(db)
	templateHandlers := templates.NewGinHandlers(templateService)

	brokerageClient := brokerage.NewClient()

	orderService := ezorders.NewService(configFromEnv(), db)
	orderService.SetPreviewFunc(brokerageClient.Preview)
	orderService.SetSubmitFunc(brokerageClient.Submit)
	orderService.SetTemplateStore(templateService)
	orderHandlers := ezorders.NewGinHandlers(orderService)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, jwtSecret, authHandlers, orderHandlers, templateHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Order routes: Protected by JWT authentication
// - Template and history routes: Protected by JWT authentication
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	orderHandlers *ezorders.GinHandlers,
	templateHandlers *templates.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Order routes
		orderGroup := v1.Group("/orders")
		orderGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			orderGroup.POST("/build", orderHandlers.BuildOrderHandler())
			orderGroup.POST("/preview", orderHandlers.PreviewOrderHandler())
			orderGroup.POST("/submit", orderHandlers.SubmitOrderHandler())
		}

		// Template routes
		templateGroup := v1.Group("/templates")
		templateGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			templateGroup.PUT("/:name", templateHandlers.SaveTemplateHandler())
			templateGroup.GET("/:name", templateHandlers.GetTemplateHandler())
			templateGroup.GET("", templateHandlers.ListTemplatesHandler())
			templateGroup.DELETE("/:name", templateHandlers.DeleteTemplateHandler())
		}

		// History and strategy metadata
		historyGroup := v1.Group("/history")
		historyGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			historyGroup.GET("", orderHandlers.OrderHistoryHandler())
		}

		strategiesGroup := v1.Group("/strategies")
		strategiesGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			strategiesGroup.GET("", orderHandlers.ListStrategiesHandler())
		}
	}
}
