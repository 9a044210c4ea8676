package api

import (
	"time"

	"luxdrive/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// AuthResponse is returned by signup and signin.
type AuthResponse struct {
	User      models.PublicUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
