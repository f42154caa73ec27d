package job

import (
	"BookItNow/internal/repository"
	"context"
	log "log/slog"
	"time"
)

const purgeRetention = 30 * 24 * time.Hour

// NotificationCleanJob 清理已读尽且长期无新消息的未读计数行
type NotificationCleanJob struct {
	notificationRepo repository.NotificationRepo
}

func NewNotificationCleanJob(repo repository.NotificationRepo) *NotificationCleanJob {
	return &NotificationCleanJob{notificationRepo: repo}
}

func (s *NotificationCleanJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	before := time.Now().Add(-purgeRetention)
	deleted, err := s.notificationRepo.PurgeReadBefore(ctx, before)
	if err != nil {
		log.Error("未读计数清理失败", "err", err)
		return
	}
	log.Info("未读计数清理完成", "deleted", deleted)
}
