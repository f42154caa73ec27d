package service

import (
	"BookItNow/internal/channel"
	"context"
	log "log/slog"
	"time"
)

// MessageService 实时消息路由：投递到接收者的活跃连接，
// 不在线即丢弃（at-most-once），历史持久化由外部聊天记录服务负责。
type MessageService interface {
	Deliver(ctx context.Context, senderID, receiverID uint64, body string) (bool, error)
}

type messageServiceImpl struct {
	registry     *channel.Registry
	presence     PresenceService
	notification NotificationService
}

func NewMessageService(registry *channel.Registry, presence PresenceService, notification NotificationService) MessageService {
	return &messageServiceImpl{
		registry:     registry,
		presence:     presence,
		notification: notification,
	}
}

// Deliver 路由一条消息，返回是否送达。
// 送达且接收者未停留在该会话页时计入未读；丢弃的消息不计数，
// 它在本层之后不再存在。
func (s *messageServiceImpl) Deliver(ctx context.Context, senderID, receiverID uint64, body string) (bool, error) {
	if receiverID == 0 {
		return false, ErrTargetUserInvalid
	}
	if receiverID == senderID {
		return false, ErrSendToSelf
	}

	env := &channel.Envelope{
		Type:       channel.EventMessage,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		SentAt:     time.Now(),
	}

	if !s.registry.Route(env) {
		log.Debug("接收方不在线，消息丢弃", "senderId", senderID, "receiverId", receiverID)
		return false, nil
	}

	viewing, err := s.presence.IsViewing(ctx, receiverID, senderID)
	if err != nil {
		// 查询失败按"未在查看"处理，宁可多计一条未读
		log.Warn("在线查看状态查询失败", "receiverId", receiverID, "senderId", senderID, "err", err)
		viewing = false
	}

	if !viewing {
		if err := s.notification.RecordInbound(ctx, receiverID, senderID); err != nil {
			log.Error("未读计数更新失败", "receiverId", receiverID, "err", err)
		}
	}

	return true, nil
}
