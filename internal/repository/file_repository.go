package repository

import (
	"context"

	"projectmate/internal/models"
	"projectmate/internal/storage"
)

type FileRepository interface {
	Create(ctx context.Context, file *models.UploadedFile) error
	Delete(ctx context.Context, id uint) error
	FindByRoomID(ctx context.Context, roomID uint) ([]models.UploadedFile, error)
	ExistsInRoom(ctx context.Context, roomID uint, filename string) (bool, error)
}

type fileRepository struct {
	baseRepository
}

func NewFileRepository(db *storage.Database) FileRepository {
	return &fileRepository{baseRepository{db: db}}
}

func (r *fileRepository) Create(ctx context.Context, file *models.UploadedFile) error {
	return translate(r.conn(ctx).Create(file).Error, "create uploaded file")
}

func (r *fileRepository) Delete(ctx context.Context, id uint) error {
	return translate(r.conn(ctx).Delete(&models.UploadedFile{}, id).Error, "delete uploaded file")
}

func (r *fileRepository) FindByRoomID(ctx context.Context, roomID uint) ([]models.UploadedFile, error) {
	var files []models.UploadedFile
	err := r.conn(ctx).Where("room_id = ?", roomID).Order("id ASC").Find(&files).Error
	return files, translate(err, "find files by room")
}

// ExistsInRoom 檢查房間內是否有以此儲存名稱記錄的檔案
func (r *fileRepository) ExistsInRoom(ctx context.Context, roomID uint, filename string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.UploadedFile{}).
		Where("room_id = ? AND filename = ?", roomID, filename).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "check uploaded file")
	}
	return count > 0, nil
}
