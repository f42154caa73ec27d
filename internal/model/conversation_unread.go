package model

import (
	"fmt"
	"time"
)

// ConversationUnread 会话维度的未读计数，UserID 为未读归属方
type ConversationUnread struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint64    `gorm:"uniqueIndex:idx_user_other;index" json:"userId"`
	OtherID       uint64    `gorm:"uniqueIndex:idx_user_other" json:"otherId"`
	PeerKey       string    `gorm:"index;type:varchar(64)" json:"peerKey"` // uid1_uid2
	Unread        uint64    `gorm:"not null;default:0" json:"unread"`
	LastMessageAt time.Time `gorm:"index" json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (ConversationUnread) TableName() string { return "conversation_unreads" }

// PeerKey 生成单聊唯一的会话标识，(A,B) 与 (B,A) 等价
func PeerKey(a, b uint64) string {
	if a < b {
		return fmt.Sprintf("%d_%d", a, b)
	}
	return fmt.Sprintf("%d_%d", b, a)
}
