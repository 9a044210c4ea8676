package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxdrive/internal/core"
)

// CarHandler serves the fleet catalog.
type CarHandler struct {
	carService core.CarService
	logger     *zap.Logger
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(cs core.CarService, logger *zap.Logger) *CarHandler {
	return &CarHandler{carService: cs, logger: logger}
}

// ListCars handles GET /api/cars
func (h *CarHandler) ListCars(c *gin.Context) {
	cars, err := h.carService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cars)
}
