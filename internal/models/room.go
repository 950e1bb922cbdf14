package models

import (
	"time"
)

// Room 表示一個協作房間，與專案一對一。
// 成員、訊息與上傳檔案都會隨房間一起刪除。
type Room struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"uniqueIndex;not null" json:"project_id"`
	Notes     string         `gorm:"type:text;not null;default:''" json:"notes"`
	Members   []RoomMember   `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Messages  []Message      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Files     []UploadedFile `gorm:"constraint:OnDelete:CASCADE" json:"files,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// RoomMember 是用戶與房間之間的成員關係
type RoomMember struct {
	RoomID    uint      `gorm:"primaryKey;autoIncrement:false" json:"room_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	CreatedAt time.Time `json:"joined_at"`
}

// MessageContentSize 訊息內容欄位的長度，需與 Content 的 size 標籤一致
const MessageContentSize = 500

// Message 是房間內的一則聊天訊息，建立後不可修改
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Sender    User      `gorm:"foreignKey:UserID" json:"-"`
	RoomID    uint      `gorm:"not null;index" json:"room_id"`
}

// UploadedFile 記錄房間內上傳的檔案
type UploadedFile struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Filename         string    `gorm:"size:255;not null" json:"filename"`          // 清理後的儲存名稱
	OriginalFilename string    `gorm:"size:255;not null" json:"original_filename"` // 顯示用的原始名稱
	RoomID           uint      `gorm:"not null;index" json:"room_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// All 回傳需要遷移的所有模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&JoinRequest{},
		&Room{},
		&RoomMember{},
		&Message{},
		&UploadedFile{},
	}
}
