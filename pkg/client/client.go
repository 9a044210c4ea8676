// Package client is the Go gateway to the LuxDrive HTTP API. It wraps the JSON
// endpoints, reports every failure as *APIError and keeps a signed-in session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"luxdrive/internal/models"
)

// DefaultBaseURL is where a locally started server listens.
const DefaultBaseURL = "http://localhost:8080/api"

// APIError is returned for any failed call. StatusCode is 0 when the request
// never got a usable HTTP response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// User is the public part of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is what signup and signin return.
type AuthResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client calls the API rooted at a base URL such as http://host:8080/api.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken changes the bearer token. An empty token makes requests anonymous.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Get issues a GET for endpoint (relative to the base URL) and decodes the
// JSON response into out.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post sends body as JSON to endpoint and decodes the response into out.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}

// errorFromResponse prefers the server's {"error": ...} message and falls back
// to the status text.
func errorFromResponse(resp *http.Response) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    "Request failed: " + http.StatusText(resp.StatusCode),
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Post(ctx, "/auth/signup", models.AuthRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Post(ctx, "/auth/signin", models.AuthRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cars returns the fleet catalog.
func (c *Client) Cars(ctx context.Context) ([]models.Car, error) {
	var out []models.Car
	if err := c.Get(ctx, "/cars", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Bookings lists the bookings of userID. With a token set the server uses the
// token's user and userID may be left empty.
func (c *Client) Bookings(ctx context.Context, userID string) ([]models.Booking, error) {
	endpoint := "/bookings"
	if userID != "" {
		endpoint += "?userId=" + url.QueryEscape(userID)
	}
	var out []models.Booking
	if err := c.Get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	var out models.Booking
	if err := c.Post(ctx, "/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	if err := c.Get(ctx, "/bookings/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelBooking(ctx context.Context, id string) (*models.Booking, error) {
	var out models.Booking
	if err := c.Post(ctx, "/bookings/"+url.PathEscape(id)+"/cancel", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) (*models.Booking, error) {
	var out models.Booking
	body := models.UpdateStatusRequest{Status: status}
	if err := c.Post(ctx, "/bookings/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Track looks a booking up by its tracking code.
func (c *Client) Track(ctx context.Context, code string) (*models.Booking, error) {
	var out models.Booking
	if err := c.Get(ctx, "/bookings/track/"+url.PathEscape(strings.TrimSpace(code)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Positions returns the recorded trail of a booking, newest first.
func (c *Client) Positions(ctx context.Context, code string, limit int) ([]models.PositionFix, error) {
	endpoint := "/bookings/track/" + url.PathEscape(strings.TrimSpace(code)) + "/positions"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var out []models.PositionFix
	if err := c.Get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}
