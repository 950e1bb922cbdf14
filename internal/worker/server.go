// Package worker 執行 asynq 背景任務。
package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"projectmate/internal/tasks"
)

// Server 封裝 asynq Server 的啟動與關閉
type Server struct {
	server *asynq.Server
	log    *logrus.Entry
	blobs  RoomBlobRemover
}

// NewServer 創建一個新的 Server 實例
func NewServer(redisOpt asynq.RedisClientOpt, blobs RoomBlobRemover, logger *logrus.Logger) *Server {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).WithError(err).Error("Task failed")
			}),
		},
	)

	return &Server{server: server, log: logEntry, blobs: blobs}
}

// Mux 回傳已註冊所有任務處理器的 ServeMux
func (s *Server) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypePurgeRoomBlobs, NewPurgeRoomBlobsHandler(s.blobs))
	return mux
}

// Start 執行 worker，應在獨立的 goroutine 中呼叫
func (s *Server) Start() {
	s.log.Info("Worker server starting...")
	if err := s.server.Run(s.Mux()); err != nil {
		if errors.Is(err, asynq.ErrServerClosed) {
			s.log.Info("Worker server stopped")
			return
		}
		s.log.WithError(err).Error("Could not run worker server")
	}
}

// Shutdown 優雅地關閉 worker
func (s *Server) Shutdown() {
	s.log.Info("Shutting down worker server...")
	s.server.Shutdown()
}
