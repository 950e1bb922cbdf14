package repository

import (
	"context"

	"gorm.io/gorm"

	"projectmate/internal/models"
	"projectmate/internal/storage"
)

type RoomRepository interface {
	// FindDetail 載入房間及其成員
	FindDetail(ctx context.Context, id uint) (*models.Room, error)
	FindByMember(ctx context.Context, userID uint) ([]models.Room, error)
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)
	UpdateNotes(ctx context.Context, roomID uint, notes string) error
	GetNotes(ctx context.Context, roomID uint) (string, error)
}

type roomRepository struct {
	baseRepository
}

func NewRoomRepository(db *storage.Database) RoomRepository {
	return &roomRepository{baseRepository{db: db}}
}

func (r *roomRepository) FindDetail(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.conn(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Members.User").
		First(&room, id).Error
	if err != nil {
		return nil, translate(err, "find room detail")
	}
	return &room, nil
}

// FindByMember 列出用戶所屬的所有房間
func (r *roomRepository) FindByMember(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.conn(ctx).
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ?", userID).
		Order("rooms.id ASC").
		Find(&rooms).Error
	return rooms, translate(err, "find rooms by member")
}

func (r *roomRepository) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "check room membership")
	}
	return count > 0, nil
}

// UpdateNotes 以單列更新覆寫筆記內容，最後寫入者為準。
// MySQL 在值未改變時回報 0 筆受影響，因此不以 RowsAffected 判斷房間是否存在。
func (r *roomRepository) UpdateNotes(ctx context.Context, roomID uint, notes string) error {
	err := r.conn(ctx).Model(&models.Room{}).Where("id = ?", roomID).Update("notes", notes).Error
	return translate(err, "update room notes")
}

func (r *roomRepository) GetNotes(ctx context.Context, roomID uint) (string, error) {
	var room models.Room
	if err := r.conn(ctx).Select("id", "notes").First(&room, roomID).Error; err != nil {
		return "", translate(err, "get room notes")
	}
	return room.Notes, nil
}
