package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxdrive/internal/config"
	"luxdrive/internal/core"
	"luxdrive/internal/metrics"
	"luxdrive/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (request ID, logging, recovery, CORS) is expected to be
// applied to router by the caller. m may be nil when metrics are disabled.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	userService core.UserService,
	tokenService core.TokenService,
	bookingService core.BookingService,
	carService core.CarService,
	m *metrics.Metrics,
) {
	authMW := middleware.NewAuthMiddleware(tokenService, logger)
	authLimiter := middleware.NewRateLimiter(appConfig.AuthRatePerMinute)

	// --- Initialize Handlers ---
	authHandler := NewAuthHandler(userService, tokenService, logger)
	carHandler := NewCarHandler(carService, logger)
	bookingHandler := NewBookingHandler(bookingService, logger)
	trackingHandler := NewTrackingHandler(bookingService, logger, appConfig.ClientOrigins())

	apiGroup := router.Group("/api")
	{
		// Signup and signin are public but throttled per client IP.
		authGroup := apiGroup.Group("/auth", authLimiter.Limit())
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
		}

		apiGroup.GET("/cars", carHandler.ListCars)

		bookingsGroup := apiGroup.Group("/bookings")
		{
			bookingsGroup.GET("", authMW.Require(appConfig.AuthRequired), bookingHandler.ListBookings)
			bookingsGroup.POST("", authMW.OptionalAuth(), bookingHandler.CreateBooking)
			bookingsGroup.GET("/:id", bookingHandler.GetBooking)
			bookingsGroup.POST("/:id/cancel", authMW.Require(appConfig.AuthRequired), bookingHandler.CancelBooking)
			bookingsGroup.POST("/:id/status", authMW.Require(appConfig.AuthRequired), bookingHandler.UpdateStatus)

			// Tracking is public: anyone holding the code may follow the car.
			trackGroup := bookingsGroup.Group("/track/:code")
			{
				trackGroup.GET("", trackingHandler.Track)
				trackGroup.GET("/positions", trackingHandler.Positions)
				trackGroup.GET("/live", trackingHandler.Live)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "UP", Message: "LuxDrive backend is healthy."})
	})

	if m != nil && appConfig.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	logger.Info("API routes configured successfully under /api and /health.")
}
