package channel

import "time"

// 通道事件类型
const (
	EventRegister = "user-connected"
	EventSend     = "send"
	EventMessage  = "message-received"
)

// Envelope 通道上的统一事件载体
type Envelope struct {
	Type       string    `json:"type"`
	UserID     uint64    `json:"user_id,omitempty"`     // user-connected: 注册身份
	SenderID   uint64    `json:"sender_id,omitempty"`   // message-received: 发送者
	ReceiverID uint64    `json:"receiver_id,omitempty"` // send: 接收者
	Body       string    `json:"body,omitempty"`
	SentAt     time.Time `json:"sent_at,omitempty"`
}
