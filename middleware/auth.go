package middleware

import (
	"strings"

	"github.com/backlot-hq/backlot-backend/config"
	apperrors "github.com/backlot-hq/backlot-backend/errors"
	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the Bearer token and stores the authenticated
// user's ID in the request context. Tokens are HMAC-signed by the platform's
// auth service with the shared secret.
func AuthMiddleware(cfg *config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger()

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithAuthError(c, "Missing or malformed Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JwtSecretKey), nil
		})
		if err != nil || !token.Valid {
			log.Debugw("Token validation failed", "error", err)
			abortWithAuthError(c, "Invalid or expired token")
			return
		}

		subject, err := claims.GetSubject()
		if err != nil || subject == "" {
			abortWithAuthError(c, "Token missing subject claim")
			return
		}

		c.Set(string(UserIDKey), subject)
		c.Next()
	}
}

func abortWithAuthError(c *gin.Context, message string) {
	_ = c.Error(apperrors.AuthenticationFailed(message))
	c.Abort()
}
