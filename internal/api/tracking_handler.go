package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"luxdrive/internal/core"
	"luxdrive/internal/models"
)

// LiveInterval is how often the live feed pushes a position, matching the
// polling cadence of the tracking page.
const LiveInterval = 5 * time.Second

const writeWait = 10 * time.Second

// TrackingHandler serves the public tracking endpoints.
type TrackingHandler struct {
	bookingService core.BookingService
	logger         *zap.Logger
	upgrader       websocket.Upgrader
	interval       time.Duration
}

// NewTrackingHandler creates a new TrackingHandler. Websocket upgrades are
// accepted from allowedOrigins, or from any origin when the list is empty.
func NewTrackingHandler(bs core.BookingService, logger *zap.Logger, allowedOrigins []string) *TrackingHandler {
	h := &TrackingHandler{bookingService: bs, logger: logger, interval: LiveInterval}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

func (h *TrackingHandler) respondTrackError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrBookingNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Tracking code not found"})
		return
	}
	respondError(c, h.logger, err)
}

// Track handles GET /api/bookings/track/:code
func (h *TrackingHandler) Track(c *gin.Context) {
	booking, err := h.bookingService.Track(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondTrackError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// Positions handles GET /api/bookings/track/:code/positions?limit=
func (h *TrackingHandler) Positions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	fixes, err := h.bookingService.Positions(c.Request.Context(), c.Param("code"), limit)
	if err != nil {
		h.respondTrackError(c, err)
		return
	}
	c.JSON(http.StatusOK, fixes)
}

// Live handles GET /api/bookings/track/:code/live. It upgrades to a websocket
// and pushes the tracked booking every interval while it is active. The
// connection is closed once the booking leaves the active status.
func (h *TrackingHandler) Live(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	// Resolve the code before upgrading so unknown codes get a plain 404.
	booking, err := h.bookingService.Track(ctx, code)
	if err != nil {
		h.respondTrackError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Reader: discard client frames, notice when the peer goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if err := h.push(conn, booking); err != nil {
			h.logger.Debug("Live tracking write failed", zap.String("code", code), zap.Error(err))
			return
		}
		if booking.Status != models.StatusActive {
			h.closeNormally(conn, "booking is "+string(booking.Status), gone)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case <-ticker.C:
		}

		booking, err = h.bookingService.Track(ctx, code)
		if err != nil {
			h.logger.Warn("Live tracking lookup failed", zap.String("code", code), zap.Error(err))
			h.closeNormally(conn, "tracking unavailable", gone)
			return
		}
	}
}

func (h *TrackingHandler) push(conn *websocket.Conn, booking *models.Booking) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(booking)
}

// closeNormally sends a close frame and waits, bounded by writeWait, for the
// peer to acknowledge it.
func (h *TrackingHandler) closeNormally(conn *websocket.Conn, reason string, gone <-chan struct{}) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		return
	}
	select {
	case <-gone:
	case <-time.After(writeWait):
	}
}
