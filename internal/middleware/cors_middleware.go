package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"luxdrive/internal/config"
)

// CORSMiddleware configures Cross-Origin Resource Sharing (CORS) for the application.
// CLIENT_URL may list several origins separated by commas. When it is empty any
// origin is allowed, without credentials, which suits local development.
func CORSMiddleware(appConfig *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	var origins []string
	if appConfig != nil {
		origins = appConfig.ClientOrigins()
	}
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowWebSockets = true

	return cors.New(corsConfig)
}
