package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"projectmate/internal/tasks"
)

// RoomBlobRemover 刪除房間的檔案目錄
type RoomBlobRemover interface {
	RemoveRoom(roomID uint) error
}

// PurgeRoomBlobsHandler 處理清除房間檔案的任務
type PurgeRoomBlobsHandler struct {
	blobs RoomBlobRemover
}

// NewPurgeRoomBlobsHandler 創建 Handler 實例
func NewPurgeRoomBlobsHandler(blobs RoomBlobRemover) *PurgeRoomBlobsHandler {
	return &PurgeRoomBlobsHandler{blobs: blobs}
}

// ProcessTask 實作 asynq.Handler 介面
func (h *PurgeRoomBlobsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	retry, _ := asynq.GetRetryCount(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_type": t.Type(),
		"retry":     retry,
	})

	var payload tasks.PurgeRoomBlobsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RoomID == 0 {
		return fmt.Errorf("missing room id: %w", asynq.SkipRetry)
	}

	logCtx = logCtx.WithField("room_id", payload.RoomID)
	if err := h.blobs.RemoveRoom(payload.RoomID); err != nil {
		logCtx.WithError(err).Error("Failed to purge room blobs")
		return err
	}

	logCtx.Info("Room blobs purged")
	return nil
}
