package repository

import "projectmate/internal/storage"

type Repositories struct {
	User        UserRepository
	Project     ProjectRepository
	JoinRequest JoinRequestRepository
	Room        RoomRepository
	Message     MessageRepository
	File        FileRepository
}

func NewRepositories(db *storage.Database) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Project:     NewProjectRepository(db),
		JoinRequest: NewJoinRequestRepository(db),
		Room:        NewRoomRepository(db),
		Message:     NewMessageRepository(db),
		File:        NewFileRepository(db),
	}
}
