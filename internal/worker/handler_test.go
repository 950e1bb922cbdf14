package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectmate/internal/blobstore"
	"projectmate/internal/tasks"
)

type failingRemover struct{}

func (failingRemover) RemoveRoom(uint) error { return errors.New("disk gone") }

func TestPurgeRoomBlobsHandler(t *testing.T) {
	store := blobstore.New(afero.NewMemMapFs(), "uploads")
	st, err := store.Stage(blobstore.Key(7, "a.txt"), strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, store.Commit(st))

	task, err := tasks.NewPurgeRoomBlobsTask(7)
	require.NoError(t, err)
	assert.Equal(t, tasks.TypePurgeRoomBlobs, task.Type())

	require.NoError(t, NewPurgeRoomBlobsHandler(store).ProcessTask(context.Background(), task))

	ok, err := store.Exists(blobstore.Key(7, "a.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurgeRoomBlobsHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := NewPurgeRoomBlobsHandler(failingRemover{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypePurgeRoomBlobs, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypePurgeRoomBlobs, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPurgeRoomBlobsHandler_RemoveErrorRetries(t *testing.T) {
	task, err := tasks.NewPurgeRoomBlobsTask(3)
	require.NoError(t, err)

	err = NewPurgeRoomBlobsHandler(failingRemover{}).ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
