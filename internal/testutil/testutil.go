// Package testutil 提供測試共用的資料庫與資料建立工具。
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"projectmate/internal/models"
	"projectmate/internal/repository"
	"projectmate/internal/storage"
	"projectmate/pkg/config"
)

// NewTestDB 建立獨立的 sqlite 記憶體資料庫並完成遷移
func NewTestDB(t *testing.T) *storage.Database {
	t.Helper()

	db, err := storage.Open(config.DBConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)

	// 共享快取的記憶體資料庫在併發寫入時容易鎖表，測試中只保留一條連線
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Fixture 持有測試資料
type Fixture struct {
	Owner     *models.User
	Requester *models.User
	Outsider  *models.User
	Project   *models.Project
	Room      *models.Room
}

// SeedRoom 建立兩位成員、一位非成員與一個已接受請求的協作房間
func SeedRoom(t *testing.T, repos *repository.Repositories) *Fixture {
	t.Helper()
	ctx := context.Background()

	owner := CreateUser(t, repos, "owner")
	requester := CreateUser(t, repos, "requester")
	outsider := CreateUser(t, repos, "outsider")

	project := &models.Project{
		Title:            "Realtime notes",
		Purpose:          "Pair on a shared document",
		ProblemStatement: "Notes drift between collaborators",
		CreatorID:        owner.ID,
	}
	require.NoError(t, repos.Project.Create(ctx, project))

	request := &models.JoinRequest{RequesterID: requester.ID, ProjectID: project.ID}
	require.NoError(t, repos.JoinRequest.Create(ctx, request))

	room, err := repos.JoinRequest.Accept(ctx, request, owner.ID)
	require.NoError(t, err)

	return &Fixture{
		Owner:     owner,
		Requester: requester,
		Outsider:  outsider,
		Project:   project,
		Room:      room,
	}
}

func CreateUser(t *testing.T, repos *repository.Repositories, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "x"}
	require.NoError(t, repos.User.Create(context.Background(), user))
	return user
}
