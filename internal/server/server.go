package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/atlasworks/projectfeed/internal/ai"
	"github.com/atlasworks/projectfeed/internal/blob"
	"github.com/atlasworks/projectfeed/internal/config"
	"github.com/atlasworks/projectfeed/internal/handler"
	appmw "github.com/atlasworks/projectfeed/internal/middleware"
	"github.com/atlasworks/projectfeed/internal/presence"
	"github.com/atlasworks/projectfeed/internal/repository"
	"github.com/atlasworks/projectfeed/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	e             *echo.Echo
	messageRepo   repository.MessageRepository
	readRepo      repository.ReadRepository
	sessionRepo   repository.SessionRepository
	directoryRepo repository.DirectoryRepository
	activityRepo  repository.ActivityRepository
	sha           string
	build         string
}

func New(db *gorm.DB, cfg *config.Config, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Employee-Id", "X-Sales-Rep-Id", "X-User-Id"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			host := u.Hostname()
			if strings.HasSuffix(host, "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	messageRepo := repository.NewMessageRepository(db)
	readRepo := repository.NewReadRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	agg := presence.NewAggregator(sessionRepo)
	blobs := newBlobStore(e, cfg)
	perm := service.AllowAll{}

	chatSvc := service.NewChatService(messageRepo, readRepo, directoryRepo, sessionRepo, agg, blobs, perm)
	summarySvc := service.NewSummaryService(messageRepo, readRepo, directoryRepo, ai.NewDigestClient(), perm)
	activitySvc := service.NewActivityService(activityRepo, directoryRepo, agg, blobs, perm)

	chatHandler := handler.NewChatHandler(chatSvc, summarySvc)
	activityHandler := handler.NewActivityHandler(activitySvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	actorMw := echo.MiddlewareFunc(appmw.HeaderActor)
	if authMw, err := appmw.NewAuthMiddleware(context.Background(), directoryRepo); err != nil {
		e.Logger.Warnf("firebase auth unavailable, using header identities: %v", err)
	} else {
		actorMw = authMw.RequireActor
	}

	api := e.Group("/api", actorMw)

	api.GET("/projects/:projectId/chat/messages", chatHandler.ListMessages)
	api.POST("/projects/:projectId/chat/messages", chatHandler.PostMessage)
	api.PUT("/projects/:projectId/chat/messages/:messageId", chatHandler.EditMessage)
	api.DELETE("/projects/:projectId/chat/messages/:messageId", chatHandler.DeleteMessage)
	api.POST("/projects/:projectId/chat/messages/:messageId/pin", chatHandler.TogglePin)
	api.POST("/projects/:projectId/chat/messages/:messageId/react", chatHandler.ToggleReaction)
	api.GET("/projects/:projectId/chat/messages/:messageId/attachment", chatHandler.GetAttachment)
	api.POST("/projects/:projectId/chat/read", chatHandler.MarkRead)
	api.GET("/projects/:projectId/chat/summary", chatHandler.Summary)
	api.POST("/projects/:projectId/chat/presence", chatHandler.ReportPresence)

	api.GET("/projects/:projectId/tasks/:taskId/activity", activityHandler.ListActivities)
	api.POST("/projects/:projectId/tasks/:taskId/activity", activityHandler.PostComment)
	api.POST("/projects/:projectId/tasks/:taskId/activity/upload", activityHandler.Upload)
	api.PUT("/projects/:projectId/tasks/:taskId/activity/:activityId", activityHandler.EditActivity)
	api.DELETE("/projects/:projectId/tasks/:taskId/activity/:activityId", activityHandler.DeleteActivity)
	api.GET("/projects/:projectId/tasks/:taskId/activity/:activityId/attachment", activityHandler.GetAttachment)

	return &Server{
		e:             e,
		messageRepo:   messageRepo,
		readRepo:      readRepo,
		sessionRepo:   sessionRepo,
		directoryRepo: directoryRepo,
		activityRepo:  activityRepo,
		sha:           sha,
		build:         buildTime,
	}
}

func newBlobStore(e *echo.Echo, cfg *config.Config) blob.Store {
	if cfg == nil || cfg.StorageBucket == "" {
		return blob.NewMemoryStore()
	}
	store, err := blob.NewGCSStore(context.Background(), cfg.StorageBucket, cfg.CredentialsFile)
	if err != nil {
		e.Logger.Warnf("gcs unavailable, using in-memory attachments: %v", err)
		return blob.NewMemoryStore()
	}
	return store
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) SetDB(db *gorm.DB) {
	s.messageRepo.SetDB(db)
	s.readRepo.SetDB(db)
	s.sessionRepo.SetDB(db)
	s.directoryRepo.SetDB(db)
	s.activityRepo.SetDB(db)
}
