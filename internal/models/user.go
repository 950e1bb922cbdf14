package models

import (
	"gorm.io/gorm"
)

// User 表示系統中的用戶
type User struct {
	// 內嵌 gorm.Model，提供 ID、CreatedAt、UpdatedAt 和 DeletedAt 字段
	gorm.Model
	Username    string  `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email       *string `gorm:"size:120;uniqueIndex" json:"email,omitempty"`
	PhoneNumber *string `gorm:"size:20" json:"phone_number,omitempty"`
	Password    string  `gorm:"not null" json:"-"` // bcrypt 雜湊，不輸出
	Skills      string  `gorm:"size:300;default:''" json:"skills"`
	Bio         string  `gorm:"size:500;default:''" json:"bio"`
	SocialLinks string  `gorm:"size:300;default:''" json:"social_links"`
}
