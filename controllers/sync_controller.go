package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/icaffe-pos/pos-device-api/engine"
)

// SyncController exposes manual sync operations to the UI.
type SyncController struct {
	Engine *engine.SyncEngine
}

// NewSyncController wires the controller to a device session's engine.
func NewSyncController(e *engine.SyncEngine) *SyncController {
	return &SyncController{Engine: e}
}

// Refresh handles POST /api/v1/sync/refresh - an on-demand pull-and-merge,
// used by the UI's refresh button and after reconnects.
func (ctrl *SyncController) Refresh(c *gin.Context) {
	if err := ctrl.Engine.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REMOTE_UNREACHABLE",
				"message": "Could not reach the remote store; showing cached data",
			},
		})
		return
	}

	pushed := ctrl.Engine.PushPending(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"pushed_pending": pushed},
	})
}

// HealthCheck handles GET /api/v1/health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "POS device API is running",
	})
}
