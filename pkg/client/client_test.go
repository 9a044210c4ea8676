package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"luxdrive/internal/api"
	"luxdrive/internal/config"
	"luxdrive/internal/core"
	"luxdrive/internal/db"
	"luxdrive/internal/models"
	"luxdrive/internal/tracking"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

// newStack starts a real API server over a temporary file store.
func newStack(t *testing.T) (*Client, core.BookingService) {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, AuthRatePerMinute: 1000}

	fs, err := db.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	store := db.NewFileBackend(fs)

	logger := zap.NewNop()
	bookings := core.NewBookingService(store.Bookings(), tracking.NewMemoryStore(10),
		core.NewNotificationService(nil, nil, logger), nil, logger)

	router := gin.New()
	api.SetupRoutes(router, cfg, logger,
		core.NewUserService(store.Users(), logger),
		core.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		bookings,
		core.NewCarService(store.Cars(), logger),
		nil)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", WithHTTPClient(srv.Client())), bookings
}

func newFake(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()))
}

func TestAPIError_UsesServerMessage(t *testing.T) {
	c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Tracking code not found"}`))
	})

	_, err := c.Track(context.Background(), "LXD-NOPE0000")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Tracking code not found", apiErr.Message)
}

func TestAPIError_FallsBackToStatusText(t *testing.T) {
	c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream down</html>"))
	})

	_, err := c.Cars(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Request failed: Bad Gateway", apiErr.Message)
}

func TestAPIError_TransportAndDecodeFailures(t *testing.T) {
	c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	_, err := c.Cars(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)

	srv := httptest.NewServer(http.NotFoundHandler())
	unreachable := New(srv.URL, WithHTTPClient(srv.Client()))
	srv.Close()
	_, err = unreachable.Cars(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got atomic.Value
	c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	})

	_, err := c.Bookings(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", got.Load())

	c.SetToken("abc")
	_, err = c.Bookings(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got.Load())
}

func TestClient_BookingRoundTrip(t *testing.T) {
	c, _ := newStack(t)
	ctx := context.Background()

	b, err := c.CreateBooking(ctx, models.CreateBookingRequest{
		CarName:     "BMW X7",
		DailyRate:   349,
		PickupDate:  "2024-01-01",
		DropoffDate: "2024-01-04",
		TotalPrice:  1047,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)

	tracked, err := c.Track(ctx, " "+b.TrackingCode+" ")
	require.NoError(t, err)
	assert.Equal(t, b.ID, tracked.ID)

	for i := 0; i < 2; i++ {
		cancelled, err := c.CancelBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
	}
	refetched, err := c.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, refetched.Status)

	_, err = c.CancelBooking(ctx, "bk_404")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Booking not found", apiErr.Message)
}

func trackingServer(t *testing.T, statuses func(call int64) models.BookingStatus) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	c := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		json.NewEncoder(w).Encode(models.Booking{ID: "bk_1", TrackingCode: "LXD-AAAAAAAA", Status: statuses(n)})
	})
	return c, &calls
}

func TestFollowTracking_StopsOnStatusChange(t *testing.T) {
	c, calls := trackingServer(t, func(n int64) models.BookingStatus {
		if n < 3 {
			return models.StatusActive
		}
		return models.StatusCompleted
	})

	var seen []models.BookingStatus
	last, err := c.FollowTracking(context.Background(), "LXD-AAAAAAAA", 5*time.Millisecond, func(b *models.Booking) {
		seen = append(seen, b.Status)
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, last.Status)
	assert.Equal(t, []models.BookingStatus{models.StatusActive, models.StatusActive, models.StatusCompleted}, seen)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFollowTracking_InactiveDoesNotPoll(t *testing.T) {
	c, calls := trackingServer(t, func(int64) models.BookingStatus { return models.StatusConfirmed })

	last, err := c.FollowTracking(context.Background(), "LXD-AAAAAAAA", 5*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, last.Status)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFollowTracking_StopsOnCancel(t *testing.T) {
	c, _ := trackingServer(t, func(int64) models.BookingStatus { return models.StatusActive })

	ctx, cancel := context.WithCancel(context.Background())
	updates := 0
	last, err := c.FollowTracking(ctx, "LXD-AAAAAAAA", 5*time.Millisecond, func(*models.Booking) {
		updates++
		if updates == 2 {
			cancel()
		}
	})
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, last)
	assert.Equal(t, models.StatusActive, last.Status)
	assert.Equal(t, 2, updates)
}
