package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"docbridge/internal/config"
	"docbridge/internal/gateway/middleware"
	"docbridge/internal/gateway/repository"
	"docbridge/internal/gateway/service"
	"docbridge/internal/gateway/storage"
	"docbridge/internal/models"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	fileService *service.FileService
	db          *pgxpool.Pool
	cache       *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewFileRepository(db)
	grantRepo := repository.NewGrantRepository(db)

	auth := service.NewAuthService(userRepo, cfg, log)
	files := service.NewFileService(fileRepo, grantRepo, store, cache, cfg, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		fileService: files,
		db:          db,
		cache:       cache,
	}
}

func (h HandlerSet) FileService() *service.FileService {
	return h.fileService
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/signup", h.Signup)
	auth.POST("/verify-email", h.VerifyEmail)

	me := router.Group("/auth")
	me.Use(middleware.Auth(h.authService))
	me.GET("/me", h.Me)

	files := router.Group("/files")
	files.Use(middleware.Auth(h.authService))
	files.GET("", h.ListFiles)

	opsOnly := files.Group("")
	opsOnly.Use(middleware.RequireRole(models.UserTypeOps))
	opsOnly.POST("/upload", h.UploadFile)

	clientOnly := files.Group("")
	clientOnly.Use(middleware.RequireRole(models.UserTypeClient))
	clientOnly.POST("/:id/link", h.IssueDownloadLink)
	clientOnly.GET("/download/:token", h.Download)
	clientOnly.GET("/history", h.DownloadHistory)
}
