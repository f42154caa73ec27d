package dto

import "time"

// ConversationUnreadDTO 单个会话的未读数
type ConversationUnreadDTO struct {
	OtherUserID   uint64    `json:"other_user_id"`
	Count         int64     `json:"count"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// NotificationListDTO 权威未读快照
type NotificationListDTO struct {
	TotalCount    int64                    `json:"total_count"`
	Notifications []*ConversationUnreadDTO `json:"notifications"`
}

// PresenceCheckDTO 在线查看状态
type PresenceCheckDTO struct {
	Viewing bool `json:"viewing"`
}
