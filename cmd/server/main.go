package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxdrive/internal/api"
	"luxdrive/internal/config"
	"luxdrive/internal/core"
	"luxdrive/internal/db"
	"luxdrive/internal/events"
	"luxdrive/internal/mailer"
	"luxdrive/internal/metrics"
	"luxdrive/internal/middleware"
	"luxdrive/internal/tracking"
)

func main() {
	// --- 1. Load Application Configuration ---
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	var zapLogger *zap.Logger
	if strings.ToLower(appConfig.GinMode) == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded successfully.",
		zap.String("storeDriver", appConfig.StoreDriver),
		zap.String("positionDriver", appConfig.PositionDriver),
		zap.String("eventsDriver", appConfig.EventsDriver))

	// --- 3. Open Storage ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()

	store, err := db.Open(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to open booking store", zap.Error(err))
	}

	var positions tracking.PositionStore
	switch appConfig.PositionDriver {
	case config.PositionRedis:
		positions, err = tracking.NewRedisStore(initCtx, tracking.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
			History:  appConfig.PositionHistory,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis position store", zap.Error(err))
		}
	default:
		positions = tracking.NewMemoryStore(appConfig.PositionHistory)
	}
	zapLogger.Info("Storage initialized successfully.")

	// --- 4. Initialize Event Publisher and Mailer ---
	publisher, err := events.New(appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize event publisher", zap.Error(err))
	}

	var mailSender mailer.Sender
	if appConfig.MailEnabled() {
		smtpMailer, err := mailer.New(mailer.Config{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUser,
			Password: appConfig.SMTPPass,
			From:     appConfig.MailFrom,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize mailer", zap.Error(err))
		}
		mailSender = smtpMailer
		zapLogger.Info("Booking confirmation mail enabled", zap.String("smtpHost", appConfig.SMTPHost))
	}

	// --- 5. Initialize Services ---
	var appMetrics *metrics.Metrics
	if appConfig.MetricsEnabled {
		appMetrics = metrics.New()
	}

	notificationService := core.NewNotificationService(publisher, mailSender, zapLogger)
	userService := core.NewUserService(store.Users(), zapLogger)
	tokenService := core.NewTokenService(appConfig.JWTSecret, appConfig.TokenTTL)
	bookingService := core.NewBookingService(store.Bookings(), positions, notificationService, appMetrics, zapLogger)
	carService := core.NewCarService(store.Cars(), zapLogger)
	zapLogger.Info("Core services initialized successfully.")

	if appConfig.CatalogPath != "" {
		seeded, err := carService.SeedFromFile(initCtx, appConfig.CatalogPath)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to seed car catalog", zap.String("path", appConfig.CatalogPath), zap.Error(err))
		}
		zapLogger.Info("Car catalog ready", zap.Int("seeded", seeded))
	}

	// --- 6. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// Order matters: the request ID must exist before the logger reads it.
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))
	if appMetrics != nil {
		router.Use(appMetrics.Middleware())
	}

	// --- 7. Setup API Routes ---
	api.SetupRoutes(router, appConfig, zapLogger, userService, tokenService, bookingService, carService, appMetrics)

	// --- 8. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 9. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		zapLogger.Warn("Failed to close event publisher", zap.Error(err))
	}
	if err := positions.Close(); err != nil {
		zapLogger.Warn("Failed to close position store", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		zapLogger.Warn("Failed to close booking store", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
