package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nanoboard/board"
	"nanoboard/config"
	"nanoboard/controllers"
	"nanoboard/middleware"
	"nanoboard/render"
	"nanoboard/repository"
	"nanoboard/storage"
	"nanoboard/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) (*gin.Engine, error) {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap(utils.Logger))
	r.Use(utils.RecoveryWithZap(utils.Logger))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	store, err := storage.NewAttachmentStore(cfg.StorageRoot, cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	repo := repository.NewPostRepository(db)
	builder := board.NewBuilder(repo, cfg.PageSize, cfg.PreviewMaxLen)

	boardController := controllers.NewBoardController(builder, renderer)
	uploadController := controllers.NewUploadController(repo, store, cfg.TitleMaxLen, cfg.MessageMaxLen)
	statsController := controllers.NewStatsController(repo)

	r.Static("/static", store.Root())

	r.GET("/", boardController.Index)
	r.GET("/post/:id", boardController.ViewThread)

	// Body cap leaves headroom past the attachment ceiling for the text fields.
	r.POST("/upload",
		middleware.BodyLimit(cfg.MaxUploadBytes+1024*1024),
		uploadController.Upload)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/api/stats", statsController.GetStats)

	return r, nil
}
