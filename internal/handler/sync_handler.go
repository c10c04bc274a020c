package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AgusMolinaCode/map-trip/internal/application"
)

// SyncHandler 同期エンジンの状態参照と強制保存のハンドラー
type SyncHandler struct {
	syncService application.TripSyncService
}

// NewSyncHandler 新しいSyncHandlerインスタンスを作成
func NewSyncHandler(syncService application.TripSyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// GetStatus GET /sync/status - 現在の同期状態を取得
func (h *SyncHandler) GetStatus(c *gin.Context) {
	resp := gin.H{
		"status":  h.syncService.Status(),
		"trip_id": h.syncService.TripID(),
	}
	if lastErr := h.syncService.LastError(); lastErr != "" {
		resp["last_error"] = lastErr
	}
	c.JSON(http.StatusOK, resp)
}

// PostForceSave POST /sync/save - デバウンスを待たずに即時保存
func (h *SyncHandler) PostForceSave(c *gin.Context) {
	if err := h.syncService.ForceSave(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "sync_error",
			"message": "保存に失敗しました: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  h.syncService.Status(),
		"trip_id": h.syncService.TripID(),
	})
}
