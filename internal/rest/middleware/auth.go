package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/masseurmatch/masseurmatch/internal/auth"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

// AuthenticateMiddleware validates the bearer token in the Authorization
// header and sets the user id, email and raw token in the request context.
func AuthenticateMiddleware(validator auth.TokenValidator, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := validator.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			if ierr.IsNotConfigured(err) {
				logger.Errorw("token validation is not configured", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			logger.Debugw("failed to validate token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		ctx := c.Request.Context()
		ctx = types.SetUserID(ctx, claims.UserID)
		if claims.Email != "" {
			ctx = types.SetUserEmail(ctx, claims.Email)
		}
		ctx = context.WithValue(ctx, types.CtxJWT, tokenString)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
