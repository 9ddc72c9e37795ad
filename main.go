package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowbook/config"
	"glowbook/cron"
	"glowbook/database"
	reservationRepo "glowbook/database/repository/reservation"
	"glowbook/handlers"
	"glowbook/routes"
	"glowbook/services/booking"
	"glowbook/services/catalog"
	"glowbook/services/profile"
	"glowbook/services/realtime"
	"glowbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// Repositories.
	resRepo := reservationRepo.NewMongoReservationRepo()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := resRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to ensure reservation indexes", zap.Error(err))
		}
		cancel()
	}

	// Services.
	catalogSvc := catalog.NewMongoServiceCatalog(utils.GetCacheClient())
	profileSvc := profile.NewMongoProfileService(utils.GetCacheClient())
	bus := realtime.NewBus(logger)

	engine := &booking.DefaultReservationEngine{
		Repo:            resRepo,
		Conflicts:       &booking.StoreConflictDetector{Repo: resRepo},
		Catalog:         catalogSvc,
		Profiles:        profileSvc,
		Payments:        booking.NewStripePaymentProcessor(logger),
		Bus:             bus,
		Logger:          logger,
		Currency:        config.AppConfig.Currency,
		DefaultDuration: time.Duration(config.AppConfig.DefaultDurationMin) * time.Minute,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Booking: &handlers.BookingHandler{
			Engine:   engine,
			Profiles: profileSvc,
			Logger:   logger,
		},
		Dashboard: &handlers.DashboardHandler{
			Bus:    bus,
			Store:  resRepo,
			Logger: logger,
		},
		Webhook: &handlers.PaymentWebhookHandler{
			Engine: engine,
			Logger: logger,
		},
	}

	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)
	sweepSrv, sweepScheduler := cron.InitSweepWorker(engine, logger)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	sweepScheduler.Shutdown()
	sweepSrv.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
