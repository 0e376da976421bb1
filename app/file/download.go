package file

import (
	"errors"
	"fmt"
	"net/http"

	"landrop/share-api/internal"
	"landrop/share-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func FileDownload(c *gin.Context, d *internal.Deps) {
	serveFile(c, d, c.Param("id"))
}

// ShareRedeem resolves a share-link token to its file and serves it
func ShareRedeem(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fileID, err := d.Share.Redeem(c.Param("token"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid or expired share link",
			"requestID": requestID,
		})
		return
	}

	serveFile(c, d, fileID)
}

func serveFile(c *gin.Context, d *internal.Deps, fileID string) {
	requestID := c.MustGet("requestID").(string)

	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	res, err := d.Files.Download(c.Request.Context(), fileID)
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

			zap.L().Error("Failed to serve file", zap.Error(err), zap.String("id", fileID), zap.String("requestID", requestID))
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.OriginalName))
	c.Data(http.StatusOK, res.MimeType, res.Data)
}
