package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"projectmate/internal/models"
	"projectmate/internal/storage"
)

type JoinRequestRepository interface {
	Create(ctx context.Context, request *models.JoinRequest) error
	FindByID(ctx context.Context, id uint) (*models.JoinRequest, error)
	FindByRequesterAndProject(ctx context.Context, requesterID, projectID uint) (*models.JoinRequest, error)
	FindPendingForCreator(ctx context.Context, creatorID uint) ([]models.JoinRequest, error)
	UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error
	// Accept 在同一個交易中建立協作房間、加入雙方成員並更新請求狀態
	Accept(ctx context.Context, request *models.JoinRequest, creatorID uint) (*models.Room, error)
}

type joinRequestRepository struct {
	baseRepository
}

func NewJoinRequestRepository(db *storage.Database) JoinRequestRepository {
	return &joinRequestRepository{baseRepository{db: db}}
}

func (r *joinRequestRepository) Create(ctx context.Context, request *models.JoinRequest) error {
	return translate(r.conn(ctx).Create(request).Error, "create join request")
}

func (r *joinRequestRepository) FindByID(ctx context.Context, id uint) (*models.JoinRequest, error) {
	var request models.JoinRequest
	if err := r.conn(ctx).Preload("Requester").First(&request, id).Error; err != nil {
		return nil, translate(err, "find join request by id")
	}
	return &request, nil
}

func (r *joinRequestRepository) FindByRequesterAndProject(ctx context.Context, requesterID, projectID uint) (*models.JoinRequest, error) {
	var request models.JoinRequest
	err := r.conn(ctx).Where("requester_id = ? AND project_id = ?", requesterID, projectID).First(&request).Error
	if err != nil {
		return nil, translate(err, "find join request")
	}
	return &request, nil
}

// FindPendingForCreator 列出某用戶所有專案中待處理的加入請求
func (r *joinRequestRepository) FindPendingForCreator(ctx context.Context, creatorID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := r.conn(ctx).
		Preload("Requester").
		Joins("JOIN projects ON projects.id = join_requests.project_id").
		Where("projects.creator_id = ? AND join_requests.status = ?", creatorID, models.RequestStatusPending).
		Order("join_requests.id ASC").
		Find(&requests).Error
	return requests, translate(err, "find pending join requests")
}

func (r *joinRequestRepository) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	result := r.conn(ctx).Model(&models.JoinRequest{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return translate(result.Error, "update join request status")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *joinRequestRepository) Accept(ctx context.Context, request *models.JoinRequest, creatorID uint) (*models.Room, error) {
	room := &models.Room{ProjectID: request.ProjectID}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Room{}).Where("project_id = ?", request.ProjectID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateEntry
		}

		if err := tx.Omit(clause.Associations).Create(room).Error; err != nil {
			return err
		}

		members := []models.RoomMember{
			{RoomID: room.ID, UserID: creatorID},
			{RoomID: room.ID, UserID: request.RequesterID},
		}
		if err := tx.Omit(clause.Associations).Create(&members).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.JoinRequest{}).
			Where("id = ?", request.ID).
			Update("status", models.RequestStatusAccepted).Error; err != nil {
			return err
		}

		// 同一專案其他待處理的請求一律拒絕
		return tx.Model(&models.JoinRequest{}).
			Where("project_id = ? AND status = ? AND id <> ?", request.ProjectID, models.RequestStatusPending, request.ID).
			Update("status", models.RequestStatusRejected).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			return nil, err
		}
		return nil, translate(err, "accept join request")
	}

	room.Members = []models.RoomMember{
		{RoomID: room.ID, UserID: creatorID},
		{RoomID: room.ID, UserID: request.RequesterID},
	}
	return room, nil
}
