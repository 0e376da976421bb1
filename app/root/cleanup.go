package root

import (
	"net/http"

	"landrop/share-api/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cleanup runs an expiry sweep on demand and reports what it reclaimed
func Cleanup(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	report, err := d.Sweeper.Sweep(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Manual sweep failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, report)
}
