package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the verified user ID.
const UserIDKey = "userID"

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors the one in internal/api/dto_models.go to avoid import cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier checks a bearer token and returns the user ID it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware provides Gin middleware for bearer token authentication.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
// It panics if verifier is nil, as this is a critical setup dependency.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("token verifier is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken rejects requests without a valid bearer token. On success the
// user ID is stored under UserIDKey.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}
		if m.authenticate(c) {
			c.Next()
		}
	}
}

// OptionalAuth lets anonymous requests through. A token that is present must
// still be valid.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if m.authenticate(c) {
			c.Next()
		}
	}
}

// Require returns VerifyToken when required is set and OptionalAuth otherwise.
func (m *AuthMiddleware) Require(required bool) gin.HandlerFunc {
	if required {
		return m.VerifyToken()
	}
	return m.OptionalAuth()
}

// authenticate verifies the header and aborts the request on failure.
func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
		return false
	}

	userID, err := m.verifier.Verify(parts[1])
	if err != nil {
		// Details stay in the server log.
		m.logger.Debug("Token verification failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
		return false
	}

	c.Set(UserIDKey, userID)
	return true
}

// UserID returns the verified user ID, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
