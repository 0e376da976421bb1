// Package device contains the handlers for device discovery and trust
// management
package device

import (
	"net/http"

	"landrop/share-api/internal"
	"landrop/share-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

// DeviceRegister is the explicit discovery path. Devices registered here
// start untrusted and wait for an admin to trust them.
func DeviceRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.DeviceNameValidator(data.Name); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	publicKey, err := validators.PublicKeyValidator(data.PublicKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	dev, err := d.Devices.Register(data.Name, c.ClientIP(), publicKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to register device", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, dev)
}

func DeviceList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	devices, err := d.Devices.List()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list devices", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, devices)
}
