package service

import (
	"projectmate/internal/blobstore"
	"projectmate/internal/repository"
	"projectmate/internal/utils"
	"projectmate/pkg/config"
)

type Services struct {
	User       *UserService
	Project    *ProjectService
	Membership *MembershipService
	Collab     *CollabService
	Hub        *Hub
}

// NewServices 組裝所有服務。hub 在 main 中建立並注入，purger 可為 nil。
func NewServices(
	cfg *config.Config,
	repos *repository.Repositories,
	blobs *blobstore.Store,
	hub *Hub,
	tokens *utils.TokenManager,
	purger BlobPurger,
) *Services {
	membership := NewMembershipService(repos.Room)

	return &Services{
		User:       NewUserService(repos.User, tokens),
		Project:    NewProjectService(repos, purger),
		Membership: membership,
		Collab:     NewCollabService(repos, membership, blobs, hub, cfg.Collab, cfg.Upload),
		Hub:        hub,
	}
}
