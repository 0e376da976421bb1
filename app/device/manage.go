package device

import (
	"errors"
	"net/http"

	"landrop/share-api/internal"
	"landrop/share-api/internal/service"
	"landrop/share-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type renameBody struct {
	Name string `json:"name"`
}

func DeviceRename(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	deviceID := c.Param("id")

	var data renameBody
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

	finish(c, d.Devices.Rename(deviceID, data.Name), requestID, "Failed to rename device")
}

func DeviceTrust(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	finish(c, d.Devices.SetTrusted(c.Param("id"), true), requestID, "Failed to trust device")
}

func DeviceUntrust(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	finish(c, d.Devices.SetTrusted(c.Param("id"), false), requestID, "Failed to untrust device")
}

func DeviceDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	finish(c, d.Devices.Delete(c.Param("id")), requestID, "Failed to delete device")
}

// finish maps the common service error shapes onto a response
func finish(c *gin.Context, err error, requestID, logMsg string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Device not found",
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error(logMsg, zap.Error(err), zap.String("requestID", requestID))
	}
}
