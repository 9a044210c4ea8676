package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxdrive/internal/core"
	"luxdrive/internal/models"
)

// AuthHandler handles the signup and signin endpoints.
type AuthHandler struct {
	userService  core.UserService
	tokenService core.TokenService
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us core.UserService, ts core.TokenService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: us, tokenService: ts, logger: logger}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email and password are required", Details: err.Error()})
		return
	}

	user, err := h.userService.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondWithToken(c, user)
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email and password are required", Details: err.Error()})
		return
	}

	user, err := h.userService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.respondWithToken(c, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, user *models.User) {
	token, expiresAt, err := h.tokenService.Issue(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{User: user.Public(), Token: token, ExpiresAt: expiresAt})
}
