package repository

import (
	"context"

	"gorm.io/gorm"

	"projectmate/internal/models"
	"projectmate/internal/storage"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context) ([]models.Project, error)
	FindByCreator(ctx context.Context, creatorID uint) ([]models.Project, error)
}

type projectRepository struct {
	baseRepository
}

func NewProjectRepository(db *storage.Database) ProjectRepository {
	return &projectRepository{baseRepository{db: db}}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return translate(r.conn(ctx).Create(project).Error, "create project")
}

// FindByID 查詢專案並一併載入其協作房間
func (r *projectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.conn(ctx).Preload("Room").First(&project, id).Error; err != nil {
		return nil, translate(err, "find project by id")
	}
	return &project, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	err := r.conn(ctx).Model(project).Select(
		"Title", "Purpose", "ProblemStatement", "Domain", "SkillsRequired", "SkillsYouHave",
	).Updates(project).Error
	return translate(err, "update project")
}

// Delete 實際刪除專案，由資料庫的 ON DELETE CASCADE 清除房間、成員、訊息與檔案紀錄
func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	result := r.conn(ctx).Delete(&models.Project{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete project")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAll 依 ID 由新到舊列出所有專案
func (r *projectRepository) FindAll(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.conn(ctx).Preload("Creator", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	}).Order("id DESC").Find(&projects).Error
	return projects, translate(err, "find all projects")
}

func (r *projectRepository) FindByCreator(ctx context.Context, creatorID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.conn(ctx).Preload("Room").Where("creator_id = ?", creatorID).Order("id DESC").Find(&projects).Error
	return projects, translate(err, "find projects by creator")
}
