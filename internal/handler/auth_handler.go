package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/middleware"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
)

// AuthHandler exposes the caller's identity and logout. Login is handled elsewhere.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GetMe godoc
// GET /api/v1/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	me := gin.H{
		"user_id": claims.UserID,
		"name":    claims.Name,
	}
	if claims.ExpiresAt != nil {
		me["expires_at"] = claims.ExpiresAt.Time
	}
	response.Success(c, http.StatusOK, gin.H{"user": me})
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the presented token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.RevokeToken(c.Request.Context(), claims); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Int("user_id", claims.UserID).Msg("Logout failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
