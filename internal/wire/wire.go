package wire

import (
	"BookItNow/internal/api"
	"BookItNow/internal/api/config"
	"BookItNow/internal/api/handler"
	"BookItNow/internal/channel"
	"BookItNow/internal/job"
	"BookItNow/internal/pkg/cron"
	"BookItNow/internal/repository"
	"BookItNow/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Registry *channel.Registry
	CronMgr  *cron.Manager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	notificationRepo := repository.NewNotificationRepo(db)

	registry := channel.NewRegistry()
	presenceService := service.NewPresenceService(cfg.IM.ViewingTTL)
	notificationService := service.NewNotificationService(notificationRepo)
	messageService := service.NewMessageService(registry, presenceService, notificationService)

	handlers := &api.HandlersGroup{
		WSHandler:           handler.NewWsHandler(registry, messageService),
		IMHandler:           handler.NewIMHandler(messageService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		PresenceHandler:     handler.NewPresenceHandler(presenceService),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(job.NewNotificationCleanJob(notificationRepo))
	if err := cronMgr.RegisterJobs(); err != nil {
		return nil, err
	}

	return &ApplicationContainer{
		Router:   router,
		DB:       db,
		Registry: registry,
		CronMgr:  cronMgr,
	}, nil
}
