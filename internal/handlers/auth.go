package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"referral-rewards/internal/auth"
	"referral-rewards/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenManager
	isAdmin     func(handle string) bool
}

// NewAuthHandler creates a new AuthHandler. isAdmin decides which handles
// receive the admin capability in their token.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenManager, isAdmin func(handle string) bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		isAdmin:     isAdmin,
	}
}

// Login issues a token for a handle, registering it on first sight.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_INPUT"})
		return
	}

	user, err := h.userService.ResolveOrCreate(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	isAdmin := h.isAdmin != nil && h.isAdmin(user.Handle)
	token, expiresAt, err := h.tokens.GenerateToken(user.Handle, isAdmin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
		"is_admin":   isAdmin,
	})
}

// GetMe returns the authenticated user
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	handle, ok := auth.GetHandle(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.GetUserByHandle(c.Request.Context(), handle)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     user,
		"is_admin": auth.IsAdmin(c),
	})
}
