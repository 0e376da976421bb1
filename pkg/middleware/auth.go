package middleware

import (
	"errors"
	"net/http"
	"strings"

	"landrop/share-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAuthMiddleware returns a middleware that gates a route group behind an
// API key with the given permission. The key comes from the Authorization
// header ("Bearer <key>" or the bare key) or an X-Api-Key header. On
// success the principal's device ID and permissions land in the context.
func NewAuthMiddleware(keys *service.APIKeys, perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		presented := extractKey(c)
		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No API key provided",
				"requestID": requestID,
			})
			return
		}

		key, err := keys.Authenticate(presented)
		if err != nil {
			if errors.Is(err, service.ErrAuth) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Invalid or expired API key",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to authenticate API key", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !key.Permissions.Has(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "API key lacks the required permission",
				"requestID": requestID,
			})
			return
		}

		c.Set("deviceID", key.DeviceID)
		c.Set("permissions", key.Permissions)
		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}

	return c.GetHeader("X-Api-Key")
}
