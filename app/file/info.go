package file

import (
	"errors"
	"net/http"

	"landrop/share-api/internal"
	"landrop/share-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func FileInfo(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	// The model hides the key and tombstone via json tags, nothing
	// sensitive leaves here
	info, err := d.Files.Info(c.Request.Context(), fileID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "File not found",
				"requestID": requestID,
			})
		case errors.Is(err, service.ErrExpired):
			c.AbortWithStatusJSON(http.StatusGone, gin.H{
				"error":     "File expired",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to fetch file info", zap.Error(err), zap.String("id", fileID), zap.String("requestID", requestID))
		}
		return
	}

	c.JSON(http.StatusOK, info)
}

func FileList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	files, err := d.Files.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list files", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, files)
}
