package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxdrive/internal/core"
	"luxdrive/internal/middleware"
	"luxdrive/internal/models"
)

// BookingHandler handles API endpoints related to bookings.
type BookingHandler struct {
	bookingService core.BookingService
	logger         *zap.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bs core.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bs, logger: logger}
}

// resolveUser reconciles the user ID the client asserted with the one carried
// by its token. A verified token wins; a conflicting assertion is refused.
func resolveUser(c *gin.Context, asserted string) (string, bool) {
	verified := middleware.UserID(c)
	if verified == "" {
		return asserted, true
	}
	if asserted != "" && asserted != verified {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "User ID does not match the authenticated user"})
		return "", false
	}
	return verified, true
}

// ListBookings handles GET /api/bookings?userId=
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := resolveUser(c, c.Query("userId"))
	if !ok {
		return
	}
	bookings, err := h.bookingService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, ok := resolveUser(c, req.UserID)
	if !ok {
		return
	}
	req.UserID = userID

	booking, err := h.bookingService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// GetBooking handles GET /api/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking handles POST /api/bookings/:id/cancel
//
// Cancelling works from pending, confirmed and active. A booking that is
// already cancelled comes back unchanged with 200. A completed booking is not
// cancelled: the request fails with 409 Conflict and the booking keeps its
// completed status, where a plain status overwrite would have accepted it.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateStatus handles POST /api/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	booking, err := h.bookingService.Transition(c.Request.Context(), c.Param("id"), req.Status, middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
