package repository

import (
	"context"

	"projectmate/internal/models"
	"projectmate/internal/storage"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	baseRepository
}

func NewUserRepository(db *storage.Database) UserRepository {
	return &userRepository{baseRepository{db: db}}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.conn(ctx).Create(user).Error, "create user")
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "find user by id")
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "find user by username")
	}
	return &user, nil
}

// Update 只寫回個人資料欄位，空值也會覆寫
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.conn(ctx).Model(user).
		Select("Email", "PhoneNumber", "Skills", "Bio", "SocialLinks").
		Updates(user).Error
	return translate(err, "update user")
}
