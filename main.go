package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"projectmate/internal/api"
	"projectmate/internal/blobstore"
	"projectmate/internal/models"
	"projectmate/internal/repository"
	"projectmate/internal/service"
	"projectmate/internal/storage"
	"projectmate/internal/tasks"
	"projectmate/internal/utils"
	"projectmate/internal/worker"
	"projectmate/pkg/config"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := newLogger(cfg)

	// 初始化資料庫連接
	db, err := storage.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	repos := repository.NewRepositories(db)
	blobs := blobstore.NewOS(cfg.Upload.Dir)
	hub := service.NewHub(cfg.Collab.SendBuffer)
	tokens := utils.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)

	// Redis 為選用：有設定時啟用限流與背景清除任務，否則同步清除檔案
	var (
		redisClient *redis.Client
		purger      service.BlobPurger = blobs
		taskClient  *tasks.Client
		workerSrv   *worker.Server
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		taskClient = tasks.NewClient(redisOpt)
		defer taskClient.Close()
		purger = taskClient

		workerSrv = worker.NewServer(redisOpt, blobs, log)
		go workerSrv.Start()
	} else {
		log.Warn("Redis not configured, rate limiting and background tasks disabled")
	}

	services := service.NewServices(cfg, repos, blobs, hub, tokens, purger)

	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Services: services,
		Tokens:   tokens,
		Logger:   log,
		Redis:    redisClient,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Server.Address).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if workerSrv != nil {
		workerSrv.Shutdown()
	}
	log.Info("Server stopped")
}

// newLogger 依設定建立 logrus logger，正式環境輸出 JSON
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetOutput(os.Stdout)

	if cfg.IsProduction() || cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
