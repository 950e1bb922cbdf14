package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"projectmate/internal/models"
	"projectmate/internal/repository"
)

// BlobPurger 刪除已刪除房間留下的檔案內容
type BlobPurger interface {
	PurgeRoomBlobs(ctx context.Context, roomID uint) error
}

// ProjectInput 建立或編輯專案的欄位
type ProjectInput struct {
	Title            string
	Purpose          string
	ProblemStatement string
	Domain           string
	SkillsRequired   string
	SkillsYouHave    string
}

func (in ProjectInput) valid() bool {
	return strings.TrimSpace(in.Title) != "" &&
		strings.TrimSpace(in.Purpose) != "" &&
		strings.TrimSpace(in.ProblemStatement) != ""
}

// Dashboard 用戶首頁資料
type Dashboard struct {
	MyProjects  []models.Project `json:"my_projects"`
	JoinedRooms []JoinedRoom     `json:"joined_rooms"`
}

// JoinedRoom 用戶以協作者身分加入的房間
type JoinedRoom struct {
	RoomID       uint   `json:"room_id"`
	ProjectID    uint   `json:"project_id"`
	ProjectTitle string `json:"project_title"`
}

// 加入請求的處理動作
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

type ProjectService struct {
	projects repository.ProjectRepository
	requests repository.JoinRequestRepository
	rooms    repository.RoomRepository
	purger   BlobPurger
}

func NewProjectService(repos *repository.Repositories, purger BlobPurger) *ProjectService {
	return &ProjectService{
		projects: repos.Project,
		requests: repos.JoinRequest,
		rooms:    repos.Room,
		purger:   purger,
	}
}

func (s *ProjectService) Create(ctx context.Context, creatorID uint, in ProjectInput) (*models.Project, error) {
	if !in.valid() {
		return nil, ErrInvalidInput
	}
	project := &models.Project{CreatorID: creatorID}
	applyProjectInput(project, in)

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, mapRepoError(err)
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return project, nil
}

// List 依建立順序由新到舊列出所有專案
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.projects.FindAll(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return projects, nil
}

// Update 只有建立者可以編輯
func (s *ProjectService) Update(ctx context.Context, userID, id uint, in ProjectInput) (*models.Project, error) {
	if !in.valid() {
		return nil, ErrInvalidInput
	}
	project, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	applyProjectInput(project, in)

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, mapRepoError(err)
	}
	return project, nil
}

// Delete 刪除專案及其房間，房間的檔案內容在之後清除
func (s *ProjectService) Delete(ctx context.Context, userID, id uint) error {
	project, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	if project.Room != nil && s.purger != nil {
		if err := s.purger.PurgeRoomBlobs(ctx, project.Room.ID); err != nil {
			// 資料已刪除，殘留檔案只記錄不回報
			logrus.WithFields(logrus.Fields{
				"project_id": id,
				"room_id":    project.Room.ID,
			}).WithError(err).Error("Failed to purge room blobs")
		}
	}
	return nil
}

// RequestJoin 送出加入專案的請求
func (s *ProjectService) RequestJoin(ctx context.Context, userID, projectID uint) (*models.JoinRequest, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if project.CreatorID == userID {
		return nil, ErrOwnProject
	}
	if project.Room != nil {
		return nil, ErrAlreadyHasCollaborator
	}

	_, err = s.requests.FindByRequesterAndProject(ctx, userID, projectID)
	switch {
	case err == nil:
		return nil, ErrAlreadyRequested
	case !errors.Is(err, repository.ErrNotFound):
		return nil, mapRepoError(err)
	}

	request := &models.JoinRequest{RequesterID: userID, ProjectID: projectID}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, mapRepoError(err)
	}
	return request, nil
}

// IncomingRequests 列出用戶專案收到的待處理請求
func (s *ProjectService) IncomingRequests(ctx context.Context, userID uint) ([]models.JoinRequest, error) {
	requests, err := s.requests.FindPendingForCreator(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return requests, nil
}

// Respond 由專案建立者接受或拒絕請求。接受時建立協作房間並回傳。
func (s *ProjectService) Respond(ctx context.Context, userID, requestID uint, action string) (*models.Room, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, ErrInvalidInput
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	project, err := s.projects.FindByID(ctx, request.ProjectID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if project.CreatorID != userID {
		return nil, ErrForbidden
	}
	if request.Status != models.RequestStatusPending {
		return nil, ErrInvalidInput
	}

	if action == ActionReject {
		if err := s.requests.UpdateStatus(ctx, requestID, models.RequestStatusRejected); err != nil {
			return nil, mapRepoError(err)
		}
		return nil, nil
	}

	if project.Room != nil {
		return nil, ErrAlreadyHasCollaborator
	}
	room, err := s.requests.Accept(ctx, request, userID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrAlreadyHasCollaborator
		}
		return nil, mapRepoError(err)
	}

	logrus.WithFields(logrus.Fields{
		"project_id":   project.ID,
		"room_id":      room.ID,
		"requester_id": request.RequesterID,
	}).Info("Join request accepted, room created")
	return room, nil
}

// Dashboard 回傳用戶自己的專案，以及以協作者身分加入的他人房間
func (s *ProjectService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	mine, err := s.projects.FindByCreator(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	rooms, err := s.rooms.FindByMember(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	joined := make([]JoinedRoom, 0, len(rooms))
	for _, room := range rooms {
		project, err := s.projects.FindByID(ctx, room.ProjectID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		if project.CreatorID == userID {
			continue
		}
		joined = append(joined, JoinedRoom{
			RoomID:       room.ID,
			ProjectID:    project.ID,
			ProjectTitle: project.Title,
		})
	}

	return &Dashboard{MyProjects: mine, JoinedRooms: joined}, nil
}

func (s *ProjectService) owned(ctx context.Context, userID, id uint) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if project.CreatorID != userID {
		return nil, ErrForbidden
	}
	return project, nil
}

func applyProjectInput(p *models.Project, in ProjectInput) {
	p.Title = strings.TrimSpace(in.Title)
	p.Purpose = strings.TrimSpace(in.Purpose)
	p.ProblemStatement = strings.TrimSpace(in.ProblemStatement)
	p.Domain = in.Domain
	p.SkillsRequired = in.SkillsRequired
	p.SkillsYouHave = in.SkillsYouHave
}
