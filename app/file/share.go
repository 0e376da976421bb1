package file

import (
	"errors"
	"fmt"
	"net/http"

	"landrop/share-api/internal"
	"landrop/share-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ShareMint issues a share-link token for an active file. The link works
// until the token or the file expires, whichever comes first.
func ShareMint(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	// Only mint links for files that currently resolve
	if _, err := d.Files.Info(c.Request.Context(), fileID); err != nil {
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

			zap.L().Error("Failed to check file before minting share link", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	token, err := d.Share.Mint(fileID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to mint share token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"url": fmt.Sprintf("%s://%s:%d/api/share/%s",
			scheme, viper.GetString("host.domain"), viper.GetInt("host.port"), token),
	})
}
