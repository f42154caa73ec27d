package service

import (
	"BookItNow/internal/api/dto"
	"BookItNow/internal/repository"
	"context"
	log "log/slog"

	"github.com/jinzhu/copier"
)

// NotificationService 未读通知的权威计数端
type NotificationService interface {
	GetCounts(ctx context.Context, userID uint64) (*dto.NotificationListDTO, error)
	MarkConversationRead(ctx context.Context, userID, otherID uint64) error
	RecordInbound(ctx context.Context, receiverID, senderID uint64) error
}

type notificationServiceImpl struct {
	notificationRepo repository.NotificationRepo
}

func NewNotificationService(repo repository.NotificationRepo) NotificationService {
	return &notificationServiceImpl{notificationRepo: repo}
}

// GetCounts 返回权威未读快照，客户端用它整体替换本地计数。
// 总数由各会话求和得到，保证 total == sum(perConversation) 恒成立。
func (s *notificationServiceImpl) GetCounts(ctx context.Context, userID uint64) (*dto.NotificationListDTO, error) {
	rows, err := s.notificationRepo.ListUnreadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &dto.NotificationListDTO{
		Notifications: make([]*dto.ConversationUnreadDTO, 0, len(rows)),
	}
	for _, row := range rows {
		d := &dto.ConversationUnreadDTO{}
		_ = copier.Copy(d, row)
		d.OtherUserID = row.OtherID
		d.Count = int64(row.Unread)
		res.TotalCount += d.Count
		res.Notifications = append(res.Notifications, d)
	}
	return res, nil
}

// MarkConversationRead 会话未读清零
func (s *notificationServiceImpl) MarkConversationRead(ctx context.Context, userID, otherID uint64) error {
	if otherID == 0 {
		return ErrParamInvalid
	}
	return s.notificationRepo.ResetUnread(ctx, userID, otherID)
}

// RecordInbound 收到一条未被查看抑制的消息，未读数 +1
func (s *notificationServiceImpl) RecordInbound(ctx context.Context, receiverID, senderID uint64) error {
	if receiverID == 0 || senderID == 0 || receiverID == senderID {
		return ErrTargetUserInvalid
	}
	if err := s.notificationRepo.IncrUnread(ctx, receiverID, senderID); err != nil {
		log.Error("未读计数写入失败", "receiverId", receiverID, "senderId", senderID, "err", err)
		return err
	}
	return nil
}
