package middlewares

import (
	"net/http"
	"strings"

	"leetclone/internal/models"
	"leetclone/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	sessionContextKey = "session"
	userIDContextKey  = "user_id"
)

// AuthMiddleware rejects requests without a valid access token. The token
// comes from the access_token cookie or an Authorization: Bearer header.
func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := tokenService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		setSession(c, claims, tokenString)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the session when a valid token is present
// and lets the request through either way.
func OptionalAuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			c.Next()
			return
		}

		if claims, err := tokenService.ValidateToken(tokenString); err == nil && claims != nil {
			setSession(c, claims, tokenString)
		}
		c.Next()
	}
}

// CurrentSession returns the session set by one of the auth middlewares.
func CurrentSession(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return models.Session{}, false
	}
	session, ok := v.(models.Session)
	return session, ok
}

func setSession(c *gin.Context, claims *services.Claims, token string) {
	c.Set(sessionContextKey, models.Session{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Token:    token,
	})
	c.Set(userIDContextKey, claims.UserID)
}

// TokenFromRequest reads the access token from the cookie, then the Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token)
	}
	return extractBearerToken(c.GetHeader("Authorization"))
}

func extractBearerToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
