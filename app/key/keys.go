// Package key contains the handlers for API key management
package key

import (
	"errors"
	"net/http"

	"landrop/share-api/internal"
	"landrop/share-api/internal/model"
	"landrop/share-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createBody struct {
	DeviceID    string   `json:"device_id"`
	Permissions []string `json:"permissions"`
	ExpiresAt   *int64   `json:"expires_at"`
}

// KeyCreate mints a new API key. The response carries the plaintext secret
// exactly once; only its hash is stored.
func KeyCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data createBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	// Minting for no particular device defaults to this node
	if data.DeviceID == "" {
		data.DeviceID = d.Devices.SelfID()
	}

	secret, key, err := d.Keys.Mint(&service.MintOpts{
		DeviceID:    data.DeviceID,
		Permissions: model.PermSet(data.Permissions),
		ExpiresAt:   data.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to mint API key", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":    secret,
		"record": key,
	})
}

func KeyList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	keys, err := d.Keys.List()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list API keys", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, keys)
}

func KeyRevoke(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	err := d.Keys.Revoke(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "API key not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to revoke API key", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusOK)
}
