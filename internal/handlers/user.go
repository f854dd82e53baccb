package handlers

import (
	"net/http"

	"leetclone/internal/middlewares"
	"leetclone/internal/models"
	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func setAccessCookie(c *gin.Context, token string) {
	c.SetCookie(accessCookie, token, int(services.AccessTokenTTL.Seconds()), "/", "", false, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to register user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to log in")
		return
	}

	setAccessCookie(c, result.AccessToken)
	c.SetCookie(refreshCookie, result.RefreshToken, int(services.RefreshTokenTTL.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Logout answers success even without a session.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshCookie)
	if err := h.auth.Logout(c.Request.Context(), refreshToken); err != nil {
		respondLogger(c).Warn("Failed to revoke token on logout", zap.Error(err))
	}

	c.SetCookie(accessCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	accessToken := middlewares.TokenFromRequest(c)
	refreshToken, _ := c.Cookie(refreshCookie)

	claims, newAccess, err := h.auth.Verify(c.Request.Context(), accessToken, refreshToken)
	if err != nil {
		respondError(c, err, "Session verification failed")
		return
	}
	if newAccess != "" {
		setAccessCookie(c, newAccess)
	}
	c.JSON(http.StatusOK, gin.H{
		"is_authenticated": true,
		"user_id":          claims.UserID,
		"username":         claims.Username,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	session := mustSession(c)
	user, err := h.auth.Me(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, err, "Failed to load profile", zap.String("user_id", session.UserID))
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session := mustSession(c)
	user, err := h.auth.UpdateProfile(c.Request.Context(), session.UserID, req)
	if err != nil {
		respondError(c, err, "Failed to update profile", zap.String("user_id", session.UserID))
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) RegisterRoutes(router gin.IRouter, requireAuth gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/verify", h.Verify)
		authGroup.GET("/me", requireAuth, h.Me)
		authGroup.PUT("/me", requireAuth, h.UpdateMe)
	}
}
