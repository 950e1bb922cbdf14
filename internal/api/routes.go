package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"projectmate/internal/api/handlers"
	"projectmate/internal/middleware"
	"projectmate/internal/service"
	"projectmate/internal/utils"
	"projectmate/pkg/config"
)

// Dependencies 建立路由所需的元件，Redis 可為 nil
type Dependencies struct {
	Config   *config.Config
	Services *service.Services
	Tokens   *utils.TokenManager
	Logger   *logrus.Logger
	Redis    *redis.Client
}

// NewRouter 建立已掛上全域中間件與所有路由的 gin.Engine
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics())
	if deps.Redis != nil {
		r.Use(middleware.RateLimit(deps.Redis, deps.Config.RateLimit.Max, deps.Config.RateLimit.Window))
	}
	r.MaxMultipartMemory = 8 << 20

	SetupRoutes(r, deps)
	return r
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	services := deps.Services
	cfg := deps.Config

	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	projectHandler := handlers.NewProjectHandler(services.Project)
	collabHandler := handlers.NewCollabHandler(services.Collab, services.Membership, cfg.Collab.RedirectPath, cfg.Upload.MaxSize)
	wsHandler := handlers.NewWebSocketHandler(services.Hub, services.Collab, cfg.Server.AllowedOrigins)
	auth := middleware.AuthMiddleware(deps.Tokens)

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// 公開路由
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.GET("/projects", projectHandler.ListProjects)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(auth)
	{
		authorized.GET("/dashboard", projectHandler.Dashboard)
		authorized.GET("/profile", authHandler.GetProfile)
		authorized.PUT("/profile", authHandler.UpdateProfile)

		projects := authorized.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.POST("/:id/requests", projectHandler.RequestJoin)
		}

		requests := authorized.Group("/requests")
		{
			requests.GET("", projectHandler.IncomingRequests)
			requests.POST("/:id/:action", projectHandler.RespondRequest)
		}
	}

	// 協作房間
	collab := r.Group("/collab", auth)
	{
		collab.GET("/:roomId", collabHandler.ViewRoom)
		collab.POST("/:roomId", collabHandler.UploadFile)
		collab.GET("/:roomId/files/:filename", collabHandler.DownloadFile)
	}

	// WebSocket 連接點
	r.GET("/ws", auth, wsHandler.HandleWebSocket)
}
