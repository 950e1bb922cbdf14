package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"projectmate/internal/blobstore"
	"projectmate/internal/repository"
	"projectmate/internal/repository/mocks"
	"projectmate/internal/testutil"
	"projectmate/internal/utils"
	"projectmate/pkg/config"
)

var testClock = time.Date(2025, 3, 1, 15, 45, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Collab: config.CollabConfig{MaxMessageLength: 500, SendBuffer: 8},
		Upload: config.UploadConfig{AllowedExtensions: []string{"png", "pdf", "txt"}},
	}
}

type collabEnv struct {
	svc    *Services
	repos  *repository.Repositories
	fx     *testutil.Fixture
	fs     afero.Fs
	blobs  *blobstore.Store
	hub    *Hub
	owner  *Client
	member *Client
}

func newCollabEnv(t *testing.T) *collabEnv {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	fx := testutil.SeedRoom(t, repos)

	fs := afero.NewMemMapFs()
	blobs := blobstore.New(fs, "uploads")
	hub := NewHub(8)
	svc := NewServices(testConfig(), repos, blobs, hub, utils.NewTokenManager("secret", time.Hour), blobs)
	svc.Collab.SetClock(func() time.Time { return testClock })

	env := &collabEnv{
		svc:    svc,
		repos:  repos,
		fx:     fx,
		fs:     fs,
		blobs:  blobs,
		hub:    hub,
		owner:  newClient(hub, nil, fx.Owner.ID, 8),
		member: newClient(hub, nil, fx.Requester.ID, 8),
	}
	hub.Join(env.owner, fx.Room.ID)
	hub.Join(env.member, fx.Room.ID)
	return env
}

func nextEvent(t *testing.T, c *Client, into interface{}) string {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		if into != nil {
			require.NoError(t, json.Unmarshal(env.Data, into))
		}
		return env.Event
	default:
		t.Fatalf("expected an event for user %d", c.UserID())
		return ""
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected event for user %d: %s", c.UserID(), raw)
	default:
	}
}

func TestUpdateNotes_MemberBroadcastsToOthers(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()

	err := env.svc.Collab.UpdateNotes(ctx, env.fx.Owner.ID, env.fx.Room.ID, "shared plan", env.owner)
	require.NoError(t, err)

	notes, err := env.svc.Collab.GetNotes(ctx, env.fx.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared plan", notes)

	var ev UpdateTextEvent
	assert.Equal(t, EventUpdateText, nextEvent(t, env.member, &ev))
	assert.Equal(t, "shared plan", ev.Text)
	assertNoEvent(t, env.owner)
}

func TestUpdateNotes_NonMemberRejected(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()
	require.NoError(t, env.svc.Collab.UpdateNotes(ctx, env.fx.Owner.ID, env.fx.Room.ID, "v1", env.owner))
	nextEvent(t, env.member, nil)

	require.NoError(t, env.repos.Room.UpdateNotes(ctx, env.fx.Room.ID, "important plan"))

	outsider := newClient(env.hub, nil, env.fx.Outsider.ID, 8)
	env.hub.Join(outsider, env.fx.Room.ID)

	err := env.svc.Collab.UpdateNotes(ctx, env.fx.Outsider.ID, env.fx.Room.ID, "defaced", outsider)
	assert.ErrorIs(t, err, ErrUnauthorized)

	notes, err := env.svc.Collab.GetNotes(ctx, env.fx.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", notes)
	assertNoEvent(t, env.owner)
	assertNoEvent(t, env.member)
}

func TestUpdateNotes_MissingRoomFailsClosed(t *testing.T) {
	env := newCollabEnv(t)

	err := env.svc.Collab.UpdateNotes(context.Background(), env.fx.Owner.ID, env.fx.Room.ID+99, "x", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPostMessage_BroadcastsToAllIncludingSender(t *testing.T) {
	env := newCollabEnv(t)

	rec, err := env.svc.Collab.PostMessage(context.Background(), env.fx.Owner.ID, env.fx.Room.ID, "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "  hi  ", rec.Content)
	assert.Equal(t, "owner", rec.Username)
	assert.Equal(t, "03:45 PM", rec.Timestamp)

	for _, c := range []*Client{env.owner, env.member} {
		var ev NewMessageEvent
		assert.Equal(t, EventNewMessage, nextEvent(t, c, &ev))
		assert.Equal(t, NewMessageEvent{Msg: "  hi  ", Username: "owner", Timestamp: "03:45 PM"}, ev)
	}
}

func TestPostMessage_Validation(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()

	_, err := env.svc.Collab.PostMessage(ctx, env.fx.Owner.ID, env.fx.Room.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Collab.PostMessage(ctx, env.fx.Owner.ID, env.fx.Room.ID, strings.Repeat("a", 501))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Collab.PostMessage(ctx, env.fx.Owner.ID, env.fx.Room.ID, strings.Repeat("é", 500))
	assert.NoError(t, err)
	nextEvent(t, env.owner, nil)
	nextEvent(t, env.member, nil)

	_, err = env.svc.Collab.PostMessage(ctx, env.fx.Outsider.ID, env.fx.Room.ID, "hello")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assertNoEvent(t, env.owner)
	assertNoEvent(t, env.member)
}

func TestPostMessage_LimitCappedAtColumnSize(t *testing.T) {
	env := newCollabEnv(t)
	env.svc.Collab.collab.MaxMessageLength = 1000
	ctx := context.Background()

	_, err := env.svc.Collab.PostMessage(ctx, env.fx.Owner.ID, env.fx.Room.ID, strings.Repeat("a", 501))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assertNoEvent(t, env.member)

	env.svc.Collab.collab.MaxMessageLength = 10
	_, err = env.svc.Collab.PostMessage(ctx, env.fx.Owner.ID, env.fx.Room.ID, strings.Repeat("a", 11))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListMessages_PostOrder(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, err := env.svc.Collab.PostMessage(ctx, env.fx.Requester.ID, env.fx.Room.ID, text)
		require.NoError(t, err)
	}

	records, err := env.svc.Collab.ListMessages(ctx, env.fx.Room.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, records[i].Content)
		assert.Equal(t, "requester", records[i].Username)
		if i > 0 {
			assert.False(t, records[i].SentAt.Before(records[i-1].SentAt))
		}
	}
}

func TestStoreFile_RejectsDisallowedExtension(t *testing.T) {
	env := newCollabEnv(t)

	_, err := env.svc.Collab.StoreFile(context.Background(), env.fx.Owner.ID, env.fx.Room.ID, "report.exe", strings.NewReader("MZ"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Collab.StoreFile(context.Background(), env.fx.Owner.ID, env.fx.Room.ID, "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Collab.StoreFile(context.Background(), env.fx.Owner.ID, env.fx.Room.ID, "_.txt.", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	files, err := env.repos.File.FindByRoomID(context.Background(), env.fx.Room.ID)
	require.NoError(t, err)
	assert.Empty(t, files)
	assertNoEvent(t, env.owner)
}

func TestStoreFile_MemberUpload(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Collab.StoreFile(ctx, env.fx.Requester.ID, env.fx.Room.ID, "Q1 report.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "Q1_report.pdf", rec.Filename)
	assert.Equal(t, "Q1 report.pdf", rec.OriginalFilename)

	files, err := env.repos.File.FindByRoomID(ctx, env.fx.Room.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	room := strconv.FormatUint(uint64(env.fx.Room.ID), 10)
	for _, c := range []*Client{env.owner, env.member} {
		var ev NewFileAddedEvent
		assert.Equal(t, EventNewFileAdded, nextEvent(t, c, &ev))
		assert.Equal(t, NewFileAddedEvent{Filename: "Q1_report.pdf", OriginalFilename: "Q1 report.pdf", Room: room}, ev)
	}

	f, err := env.svc.Collab.OpenFile(ctx, env.fx.Owner.ID, env.fx.Room.ID, "Q1_report.pdf")
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))
}

func TestStoreFile_OverwritesSameName(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()

	for _, body := range []string{"old", "new"} {
		_, err := env.svc.Collab.StoreFile(ctx, env.fx.Owner.ID, env.fx.Room.ID, "notes.txt", strings.NewReader(body))
		require.NoError(t, err)
	}

	files, err := env.repos.File.FindByRoomID(ctx, env.fx.Room.ID)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	data, err := afero.ReadFile(env.fs, "uploads/"+blobstore.Key(env.fx.Room.ID, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestStoreFile_NonMember(t *testing.T) {
	env := newCollabEnv(t)

	_, err := env.svc.Collab.StoreFile(context.Background(), env.fx.Outsider.ID, env.fx.Room.ID, "report.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.svc.Collab.OpenFile(context.Background(), env.fx.Outsider.ID, env.fx.Room.ID, "report.pdf")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assertNoEvent(t, env.owner)
}

func TestRoomView(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.Collab.UpdateNotes(ctx, env.fx.Owner.ID, env.fx.Room.ID, "agenda", nil))
	_, err := env.svc.Collab.PostMessage(ctx, env.fx.Owner.ID, env.fx.Room.ID, "hello")
	require.NoError(t, err)

	view, err := env.svc.Collab.RoomView(ctx, env.fx.Requester.ID, env.fx.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, "agenda", view.Notes)
	assert.Len(t, view.Members, 2)
	assert.Len(t, view.Messages, 1)
	assert.Empty(t, view.Files)

	_, err = env.svc.Collab.RoomView(ctx, env.fx.Outsider.ID, env.fx.Room.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHandleEvent(t *testing.T) {
	env := newCollabEnv(t)
	ctx := context.Background()
	room := strconv.FormatUint(uint64(env.fx.Room.ID), 10)

	late := newClient(env.hub, nil, env.fx.Owner.ID, 8)
	env.svc.Collab.HandleEvent(ctx, late, Envelope{
		Event: EventJoinRoom,
		Data:  json.RawMessage(`{"room":"` + room + `"}`),
	})
	assert.Equal(t, 3, env.hub.RoomSize(env.fx.Room.ID))

	env.svc.Collab.HandleEvent(ctx, env.member, Envelope{
		Event: EventSendMessage,
		Data:  json.RawMessage(`{"room":` + room + `,"msg":"hi"}`),
	})
	for _, c := range []*Client{env.owner, env.member, late} {
		var ev NewMessageEvent
		assert.Equal(t, EventNewMessage, nextEvent(t, c, &ev))
		assert.Equal(t, "requester", ev.Username)
	}

	env.svc.Collab.HandleEvent(ctx, late, Envelope{
		Event: EventLeaveRoom,
		Data:  json.RawMessage(`{"room":"` + room + `"}`),
	})
	assert.Equal(t, 2, env.hub.RoomSize(env.fx.Room.ID))

	require.NoError(t, env.repos.Room.UpdateNotes(ctx, env.fx.Room.ID, "important plan"))

	outsider := newClient(env.hub, nil, env.fx.Outsider.ID, 8)
	env.svc.Collab.HandleEvent(ctx, outsider, Envelope{
		Event: EventTextUpdate,
		Data:  json.RawMessage(`{"room":"` + room + `","text":"spam"}`),
	})
	env.svc.Collab.HandleEvent(ctx, env.owner, Envelope{Event: "bogus"})
	env.svc.Collab.HandleEvent(ctx, env.owner, Envelope{Event: EventTextUpdate, Data: json.RawMessage(`{"room":"abc"}`)})
	// 缺少 text 欄位的成員事件不得清空筆記
	env.svc.Collab.HandleEvent(ctx, env.owner, Envelope{
		Event: EventTextUpdate,
		Data:  json.RawMessage(`{"room":"` + room + `"}`),
	})

	assertNoEvent(t, env.owner)
	assertNoEvent(t, env.member)
	notes, err := env.svc.Collab.GetNotes(ctx, env.fx.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, "important plan", notes)
}

func newMockedCollab(t *testing.T) (*CollabService, *mocks.RoomRepository, *mocks.FileRepository, afero.Fs, *Client) {
	t.Helper()
	rooms := new(mocks.RoomRepository)
	files := new(mocks.FileRepository)
	repos := &repository.Repositories{
		User:    new(mocks.UserRepository),
		Room:    rooms,
		Message: new(mocks.MessageRepository),
		File:    files,
	}
	fs := afero.NewMemMapFs()
	hub := NewHub(8)
	cfg := testConfig()
	svc := NewCollabService(repos, NewMembershipService(rooms), blobstore.New(fs, "uploads"), hub, cfg.Collab, cfg.Upload)

	peer := newClient(hub, nil, 3, 8)
	hub.Join(peer, 1)
	return svc, rooms, files, fs, peer
}

func TestStoreFile_RecordFailureDiscardsStage(t *testing.T) {
	svc, rooms, files, fs, peer := newMockedCollab(t)
	rooms.On("IsMember", mock.Anything, uint(1), uint(2)).Return(true, nil)
	files.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	_, err := svc.StoreFile(context.Background(), 2, 1, "report.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrStorageFailure)

	entries, err := afero.ReadDir(fs, "uploads/.staging")
	require.NoError(t, err)
	assert.Empty(t, entries)
	exists, err := afero.Exists(fs, "uploads/1/report.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
	assertNoEvent(t, peer)
	files.AssertExpectations(t)
}

func TestUpdateNotes_StorageFailureNoBroadcast(t *testing.T) {
	svc, rooms, _, _, peer := newMockedCollab(t)
	rooms.On("IsMember", mock.Anything, uint(1), uint(2)).Return(true, nil)
	rooms.On("UpdateNotes", mock.Anything, uint(1), "text").Return(errors.New("db down")).Once()

	err := svc.UpdateNotes(context.Background(), 2, 1, "text", nil)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assertNoEvent(t, peer)
	rooms.AssertExpectations(t)
}

func TestMembership_LookupErrorFailsClosed(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	rooms.On("IsMember", mock.Anything, uint(1), uint(2)).Return(false, errors.New("db down"))

	assert.False(t, NewMembershipService(rooms).IsMember(context.Background(), 2, 1))
}
