package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gedlingdental/cohort-go/internal/infrastructure/observability/logging"
	"github.com/gedlingdental/cohort-go/internal/infrastructure/security"
	"github.com/gedlingdental/cohort-go/pkg/config"
)

// AuthHandlers provides operator authentication for the admin endpoints.
type AuthHandlers struct {
	jwtSecret string
	logger    *logging.ChanneledLogger
}

// NewAuthHandlers creates the auth handlers. When no JWT secret is
// configured, a process-lifetime secret is generated so tokens survive until
// restart only.
func NewAuthHandlers(logger *logging.ChanneledLogger) *AuthHandlers {
	secret := config.JWTSecret
	if secret == "" {
		generated, err := security.GenerateSecureKey(64)
		if err == nil {
			secret = generated
			logger.Auth().Warn("JWT_SECRET not set, generated ephemeral secret")
		}
	}
	return &AuthHandlers{jwtSecret: secret, logger: logger}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// PostLogin verifies the operator password and issues a bearer token.
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	if config.AdminPasswordHash == "" || !security.VerifyPassword(config.AdminPasswordHash, req.Password) {
		h.logger.Auth().Warn("Operator login rejected", "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := security.GenerateOperatorToken(h.jwtSecret, config.AuthTokenTTL)
	if err != nil {
		h.logger.Auth().Error("Failed to generate operator token", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	h.logger.Auth().Info("Operator login succeeded", "ip", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GetAuthStatus reports whether the presented token is valid.
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// AuthMiddleware guards admin routes with a bearer token check.
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := security.ValidateJWT(token, h.jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("role", claims["role"])
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Websocket clients cannot set headers from the browser.
	return c.Query("token")
}
