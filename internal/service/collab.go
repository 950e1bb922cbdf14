package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"projectmate/internal/blobstore"
	"projectmate/internal/metrics"
	"projectmate/internal/models"
	"projectmate/internal/repository"
	"projectmate/pkg/config"
)

// TimestampLayout 聊天訊息時間的顯示格式，例如 03:45 PM
const TimestampLayout = "03:04 PM"

// MessageRecord 聊天訊息
type MessageRecord struct {
	ID        uint      `json:"id"`
	RoomID    uint      `json:"room_id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"msg"`
	Timestamp string    `json:"timestamp"`
	SentAt    time.Time `json:"sent_at"`
}

// FileRecord 已上傳的檔案
type FileRecord struct {
	ID               uint      `json:"id"`
	RoomID           uint      `json:"room_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	CreatedAt        time.Time `json:"created_at"`
}

// MemberView 房間成員
type MemberView struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// RoomView 房間頁面所需的完整資料
type RoomView struct {
	RoomID    uint            `json:"room_id"`
	ProjectID uint            `json:"project_id"`
	Notes     string          `json:"notes"`
	Members   []MemberView    `json:"members"`
	Files     []FileRecord    `json:"files"`
	Messages  []MessageRecord `json:"messages"`
}

// CollabService 處理房間內的筆記、聊天與檔案
type CollabService struct {
	membership *MembershipService
	rooms      repository.RoomRepository
	messages   repository.MessageRepository
	files      repository.FileRepository
	users      repository.UserRepository
	blobs      *blobstore.Store
	hub        *Hub
	collab     config.CollabConfig
	upload     config.UploadConfig
	now        func() time.Time
}

// NewCollabService 創建一個新的 CollabService 實例
func NewCollabService(
	repos *repository.Repositories,
	membership *MembershipService,
	blobs *blobstore.Store,
	hub *Hub,
	collab config.CollabConfig,
	upload config.UploadConfig,
) *CollabService {
	return &CollabService{
		membership: membership,
		rooms:      repos.Room,
		messages:   repos.Message,
		files:      repos.File,
		users:      repos.User,
		blobs:      blobs,
		hub:        hub,
		collab:     collab,
		upload:     upload,
		now:        time.Now,
	}
}

// SetClock 替換訊息時間來源
func (s *CollabService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *CollabService) deny(action string, userID, roomID uint) error {
	metrics.MembershipDenied.WithLabelValues(action).Inc()
	logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
		"action":  action,
	}).Warn("Room action rejected for non-member")
	return ErrUnauthorized
}

// UpdateNotes 覆寫房間的共享筆記，並通知房間內除 sender 以外的連線
func (s *CollabService) UpdateNotes(ctx context.Context, userID, roomID uint, text string, sender *Client) error {
	if !s.membership.IsMember(ctx, userID, roomID) {
		return s.deny("update_notes", userID, roomID)
	}

	if err := s.rooms.UpdateNotes(ctx, roomID, text); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).
			WithError(err).Error("Failed to persist notes")
		return errors.Join(ErrStorageFailure, err)
	}
	metrics.NotesUpdated.Inc()

	s.hub.Publish(roomID, EventUpdateText, UpdateTextEvent{Text: text}, sender)
	return nil
}

// GetNotes 讀取房間目前的筆記
func (s *CollabService) GetNotes(ctx context.Context, roomID uint) (string, error) {
	notes, err := s.rooms.GetNotes(ctx, roomID)
	if err != nil {
		return "", mapRepoError(err)
	}
	return notes, nil
}

// PostMessage 寫入聊天訊息後廣播給房間內所有連線，包含發送者
func (s *CollabService) PostMessage(ctx context.Context, userID, roomID uint, content string) (*MessageRecord, error) {
	if !s.membership.IsMember(ctx, userID, roomID) {
		return nil, s.deny("post_message", userID, roomID)
	}

	if strings.TrimSpace(content) == "" || utf8.RuneCountInString(content) > s.maxMessageLength() {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, mapRepoError(err)
	}

	msg := &models.Message{
		Content:   content,
		Timestamp: s.now(),
		UserID:    userID,
		RoomID:    roomID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).
			WithError(err).Error("Failed to persist message")
		return nil, errors.Join(ErrStorageFailure, err)
	}
	metrics.MessagesPosted.Inc()

	record := toMessageRecord(msg, user.Username)
	s.hub.Publish(roomID, EventNewMessage, NewMessageEvent{
		Msg:       record.Content,
		Username:  record.Username,
		Timestamp: record.Timestamp,
	}, nil)
	return &record, nil
}

// ListMessages 依時間順序列出房間的所有訊息
func (s *CollabService) ListMessages(ctx context.Context, roomID uint) ([]MessageRecord, error) {
	messages, err := s.messages.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	records := make([]MessageRecord, 0, len(messages))
	for i := range messages {
		records = append(records, toMessageRecord(&messages[i], messages[i].Sender.Username))
	}
	return records, nil
}

// StoreFile 儲存上傳的檔案並通知房間內所有連線。
// 檔案內容先寫入暫存區，資料庫紀錄成功後才提交到最終位置；
// 任一步驟失敗都會撤銷已完成的部分。
func (s *CollabService) StoreFile(ctx context.Context, userID, roomID uint, filename string, content io.Reader) (*FileRecord, error) {
	if !s.membership.IsMember(ctx, userID, roomID) {
		return nil, s.deny("store_file", userID, roomID)
	}

	if filename == "" || !allowedFile(filename, s.upload.AllowedExtensions) {
		return nil, ErrInvalidInput
	}
	safe := SecureFilename(filename)
	if safe == "" {
		return nil, ErrInvalidInput
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"room_id":  roomID,
		"user_id":  userID,
		"filename": safe,
	})

	staged, err := s.blobs.Stage(blobstore.Key(roomID, safe), content)
	if err != nil {
		logCtx.WithError(err).Error("Failed to stage upload")
		return nil, errors.Join(ErrStorageFailure, err)
	}

	file := &models.UploadedFile{
		Filename:         safe,
		OriginalFilename: filename,
		RoomID:           roomID,
	}
	if err := s.files.Create(ctx, file); err != nil {
		logCtx.WithError(err).Error("Failed to record upload")
		if derr := s.blobs.Discard(staged); derr != nil {
			logCtx.WithError(derr).Warn("Failed to discard staged upload")
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}

	if err := s.blobs.Commit(staged); err != nil {
		logCtx.WithError(err).Error("Failed to commit upload")
		if derr := s.files.Delete(ctx, file.ID); derr != nil {
			logCtx.WithError(derr).Error("Failed to remove file record after commit failure")
		}
		if derr := s.blobs.Discard(staged); derr != nil {
			logCtx.WithError(derr).Warn("Failed to discard staged upload")
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	metrics.FilesStored.Inc()
	logCtx.WithFields(logrus.Fields{"key": staged.Key(), "size": staged.Size}).Info("File stored")

	record := toFileRecord(file)
	s.hub.Publish(roomID, EventNewFileAdded, NewFileAddedEvent{
		Filename:         record.Filename,
		OriginalFilename: record.OriginalFilename,
		Room:             strconv.FormatUint(uint64(roomID), 10),
	}, nil)
	return &record, nil
}

// OpenFile 開啟房間內的檔案供成員下載
func (s *CollabService) OpenFile(ctx context.Context, userID, roomID uint, filename string) (afero.File, error) {
	if !s.membership.IsMember(ctx, userID, roomID) {
		return nil, s.deny("download_file", userID, roomID)
	}

	ok, err := s.files.ExistsInRoom(ctx, roomID, filename)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	f, err := s.blobs.Open(blobstore.Key(roomID, filename))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStorageFailure, err)
	}
	return f, nil
}

// RoomView 組合房間頁面資料，非成員或房間不存在時回傳 ErrUnauthorized
func (s *CollabService) RoomView(ctx context.Context, userID, roomID uint) (*RoomView, error) {
	if !s.membership.IsMember(ctx, userID, roomID) {
		return nil, s.deny("view_room", userID, roomID)
	}

	room, err := s.rooms.FindDetail(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, mapRepoError(err)
	}

	files, err := s.files.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	messages, err := s.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}

	view := &RoomView{
		RoomID:    room.ID,
		ProjectID: room.ProjectID,
		Notes:     room.Notes,
		Members:   make([]MemberView, 0, len(room.Members)),
		Files:     make([]FileRecord, 0, len(files)),
		Messages:  messages,
	}
	for _, m := range room.Members {
		view.Members = append(view.Members, MemberView{UserID: m.UserID, Username: m.User.Username, JoinedAt: m.CreatedAt})
	}
	for i := range files {
		view.Files = append(view.Files, toFileRecord(&files[i]))
	}
	return view, nil
}

// HandleEvent 處理 WebSocket 事件，錯誤只記錄不回傳給客戶端
func (s *CollabService) HandleEvent(ctx context.Context, client *Client, env Envelope) {
	logCtx := logrus.WithFields(logrus.Fields{
		"user_id": client.UserID(),
		"event":   env.Event,
	})

	switch env.Event {
	case EventJoinRoom:
		var p roomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logCtx.WithError(err).Debug("Invalid join_room payload")
			return
		}
		s.hub.Join(client, uint(p.Room))
		logCtx.WithField("room_id", uint(p.Room)).Debug("Client joined room")

	case EventLeaveRoom:
		var p roomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logCtx.WithError(err).Debug("Invalid leave_room payload")
			return
		}
		s.hub.Leave(client, uint(p.Room))

	case EventTextUpdate:
		var p textUpdatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logCtx.WithError(err).Debug("Invalid text_update payload")
			return
		}
		if p.Text == nil {
			logCtx.WithField("room_id", uint(p.Room)).Debug("text_update without text ignored")
			return
		}
		if err := s.UpdateNotes(ctx, client.UserID(), uint(p.Room), *p.Text, client); err != nil {
			logCtx.WithField("room_id", uint(p.Room)).WithError(err).Debug("text_update dropped")
		}

	case EventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			logCtx.WithError(err).Debug("Invalid send_message payload")
			return
		}
		if _, err := s.PostMessage(ctx, client.UserID(), uint(p.Room), p.Msg); err != nil {
			logCtx.WithField("room_id", uint(p.Room)).WithError(err).Debug("send_message dropped")
		}

	default:
		logCtx.Debug("Unknown event ignored")
	}
}

// maxMessageLength 設定值不可超過資料表欄位長度
func (s *CollabService) maxMessageLength() int {
	if n := s.collab.MaxMessageLength; n > 0 && n < models.MessageContentSize {
		return n
	}
	return models.MessageContentSize
}

func toMessageRecord(m *models.Message, username string) MessageRecord {
	return MessageRecord{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.UserID,
		Username:  username,
		Content:   m.Content,
		Timestamp: m.Timestamp.Format(TimestampLayout),
		SentAt:    m.Timestamp,
	}
}

func toFileRecord(f *models.UploadedFile) FileRecord {
	return FileRecord{
		ID:               f.ID,
		RoomID:           f.RoomID,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		CreatedAt:        f.CreatedAt,
	}
}
