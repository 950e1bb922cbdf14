package repository

import (
	"context"

	"gorm.io/gorm"

	"projectmate/internal/models"
	"projectmate/internal/storage"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// FindByRoomID 依時間戳遞增回傳房間內所有訊息，同一時間戳以 ID 排序
	FindByRoomID(ctx context.Context, roomID uint) ([]models.Message, error)
}

type messageRepository struct {
	baseRepository
}

func NewMessageRepository(db *storage.Database) MessageRepository {
	return &messageRepository{baseRepository{db: db}}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return translate(r.conn(ctx).Omit("Sender").Create(message).Error, "create message")
}

func (r *messageRepository) FindByRoomID(ctx context.Context, roomID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.conn(ctx).
		Preload("Sender", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("room_id = ?", roomID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&messages).Error
	return messages, translate(err, "find messages by room")
}
