package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"projectmate/internal/repository"
)

// MembershipService 判斷用戶是否為房間成員，所有房間操作在執行前都必須先經過它
type MembershipService struct {
	rooms repository.RoomRepository
}

// NewMembershipService 創建一個新的 MembershipService 實例
func NewMembershipService(rooms repository.RoomRepository) *MembershipService {
	return &MembershipService{rooms: rooms}
}

// IsMember 查詢失敗時一律回傳 false
func (s *MembershipService) IsMember(ctx context.Context, userID, roomID uint) bool {
	ok, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"room_id": roomID,
			"user_id": userID,
		}).WithError(err).Error("Membership lookup failed")
		return false
	}
	return ok
}
