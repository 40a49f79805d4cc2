package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridematch/internal/app"
	"ridematch/internal/config"
	"ridematch/internal/events"
	"ridematch/internal/fare"
	"ridematch/internal/geo"
	"ridematch/internal/handler"
	"ridematch/internal/payments"
	"ridematch/internal/repository/postgres"
	"ridematch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Initialize the event stream if configured.
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("Kafka publisher enabled: topic=%s", cfg.Kafka.Topic)
	}

	// Wire dependencies.
	server := wireServer(db, redisClient, publisher, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, publisher events.Publisher, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize repositories.
	rideRepo := postgres.NewRideRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	txRepo := postgres.NewTransactionRepository(db)

	// Geo index backed by Redis so all instances see the same offers.
	geoIndex := geo.NewRedisIndex(redisClient)

	// Card processor: Stripe when configured, no-op otherwise.
	var cards payments.CardProcessor = payments.NewNoopProcessor()
	if cfg.Stripe.APIKey != "" {
		cards = payments.NewStripeProcessor(cfg.Stripe.APIKey, cfg.Stripe.Currency)
		log.Println("Stripe card processor enabled")
	}

	// Initialize services.
	estimator := fare.NewEstimator(cfg.Fare.BaseFare, cfg.Fare.PerKmRate)
	notifier := service.NewNotificationService()
	wallet := service.NewWalletService(accountRepo, txRepo)
	matching := service.NewMatchingService(
		rideRepo,
		accountRepo,
		geoIndex,
		estimator,
		wallet,
		cards,
		publisher,
		notifier,
		cfg.Matching.DefaultRadiusMeters,
	)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(matching)
	walletHandler := handler.NewWalletHandler(wallet)
	accountHandler := handler.NewAccountHandler(accountRepo)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		WalletHandler:  walletHandler,
		AccountHandler: accountHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
