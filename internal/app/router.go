package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"ridematch/internal/handler"
	"ridematch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	WalletHandler  *handler.WalletHandler
	AccountHandler *handler.AccountHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.Idempotency(deps.RedisClient))
	}

	// Health check and metrics scrape endpoint.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes. Everything under /v1 acts on behalf of an account.
	v1 := router.Group("/v1")
	v1.Use(middleware.Identity())
	{
		// Account routes.
		accounts := v1.Group("/accounts")
		{
			accounts.POST("/register", deps.AccountHandler.Register)
			accounts.GET("/me", deps.AccountHandler.GetMe)
			accounts.POST("/deactivate", deps.AccountHandler.Deactivate)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("/request", deps.RideHandler.RequestRide)
			rides.POST("/offer", deps.RideHandler.OfferRide)
			rides.GET("/nearby", deps.RideHandler.ListNearby)
			rides.GET("/estimate-fare", deps.RideHandler.EstimateFare)
			rides.GET("", deps.RideHandler.ListRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/accept", deps.RideHandler.AcceptRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/start", deps.RideHandler.StartRide)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
			rides.POST("/:id/settle", deps.RideHandler.SettleRide)
			rides.POST("/:id/rate", deps.RideHandler.RateRide)
		}

		// Wallet routes.
		wallet := v1.Group("/wallet")
		{
			wallet.GET("/balance", deps.WalletHandler.Balance)
			wallet.POST("/add-money", deps.WalletHandler.AddMoney)
			wallet.GET("/transactions", deps.WalletHandler.Transactions)
		}
	}

	return router
}
