// Package mocks 提供 repository 介面的 testify mock 實作。
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"projectmate/internal/models"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindDetail(ctx context.Context, id uint) (*models.Room, error) {
	args := m.Called(ctx, id)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

func (m *RoomRepository) FindByMember(ctx context.Context, userID uint) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	rooms, _ := args.Get(0).([]models.Room)
	return rooms, args.Error(1)
}

func (m *RoomRepository) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) UpdateNotes(ctx context.Context, roomID uint, notes string) error {
	return m.Called(ctx, roomID, notes).Error(0)
}

func (m *RoomRepository) GetNotes(ctx context.Context, roomID uint) (string, error) {
	args := m.Called(ctx, roomID)
	return args.String(0), args.Error(1)
}

type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MessageRepository) FindByRoomID(ctx context.Context, roomID uint) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	messages, _ := args.Get(0).([]models.Message)
	return messages, args.Error(1)
}

type FileRepository struct {
	mock.Mock
}

func (m *FileRepository) Create(ctx context.Context, file *models.UploadedFile) error {
	return m.Called(ctx, file).Error(0)
}

func (m *FileRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *FileRepository) FindByRoomID(ctx context.Context, roomID uint) ([]models.UploadedFile, error) {
	args := m.Called(ctx, roomID)
	files, _ := args.Get(0).([]models.UploadedFile)
	return files, args.Error(1)
}

func (m *FileRepository) ExistsInRoom(ctx context.Context, roomID uint, filename string) (bool, error) {
	args := m.Called(ctx, roomID, filename)
	return args.Bool(0), args.Error(1)
}
