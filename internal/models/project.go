package models

import (
	"time"
)

// Project 表示用戶發起的專案。刪除專案時會連帶刪除其加入請求與協作房間。
type Project struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Title            string        `gorm:"size:150;not null" json:"title"`
	Purpose          string        `gorm:"type:text;not null" json:"purpose"`
	ProblemStatement string        `gorm:"type:text;not null" json:"problem_statement"`
	Domain           string        `gorm:"size:100" json:"domain"`
	SkillsRequired   string        `gorm:"size:300" json:"skills_required"`
	SkillsYouHave    string        `gorm:"size:300" json:"skills_you_have"`
	CreatorID        uint          `gorm:"not null;index" json:"creator_id"`
	Creator          *User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Requests         []JoinRequest `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Room             *Room         `gorm:"constraint:OnDelete:CASCADE" json:"room,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// RequestStatus 定義加入請求狀態的類型
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

// JoinRequest 表示用戶請求加入某個專案
type JoinRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	RequesterID uint          `gorm:"not null;index" json:"requester_id"`
	Requester   User          `gorm:"foreignKey:RequesterID" json:"requester"`
	ProjectID   uint          `gorm:"not null;index" json:"project_id"`
	Status      RequestStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
