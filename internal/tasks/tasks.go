// Package tasks 定義背景任務的類型與內容，並提供排入佇列的用戶端。
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任務類型
const (
	TypePurgeRoomBlobs = "room:purge_blobs"
)

// PurgeRoomBlobsPayload 清除已刪除房間檔案的任務內容
type PurgeRoomBlobsPayload struct {
	RoomID uint `json:"room_id"`
}

// NewPurgeRoomBlobsTask 創建清除房間檔案的任務
func NewPurgeRoomBlobsTask(roomID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(PurgeRoomBlobsPayload{RoomID: roomID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePurgeRoomBlobs, payload, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// Client 將任務排入 asynq 佇列
type Client struct {
	client *asynq.Client
}

// NewClient 創建一個新的 Client 實例
func NewClient(redisOpt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpt)}
}

// PurgeRoomBlobs 排入清除房間檔案的任務
func (c *Client) PurgeRoomBlobs(ctx context.Context, roomID uint) error {
	task, err := NewPurgeRoomBlobsTask(roomID)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s for room %d: %w", TypePurgeRoomBlobs, roomID, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
