package repository

import (
	"BookItNow/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepo interface {
	IncrUnread(ctx context.Context, userID, otherID uint64) error
	ResetUnread(ctx context.Context, userID, otherID uint64) error
	ListUnreadByUser(ctx context.Context, userID uint64) ([]*model.ConversationUnread, error)
	TotalUnreadByUser(ctx context.Context, userID uint64) (int64, error)
	PurgeReadBefore(ctx context.Context, before time.Time) (int64, error)
}

type notificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepo {
	return &notificationRepoImpl{db: db}
}

// IncrUnread 未读数 +1，不存在则插入计数为 1 的新行
func (s *notificationRepoImpl) IncrUnread(ctx context.Context, userID, otherID uint64) error {
	now := time.Now()
	row := &model.ConversationUnread{
		UserID:        userID,
		OtherID:       otherID,
		PeerKey:       model.PeerKey(userID, otherID),
		Unread:        1,
		LastMessageAt: now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "other_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"unread":          gorm.Expr("unread + 1"),
			"last_message_at": now,
		}),
	}).Create(row).Error
}

// ResetUnread 会话未读清零
func (s *notificationRepoImpl) ResetUnread(ctx context.Context, userID, otherID uint64) error {
	return s.db.WithContext(ctx).Model(&model.ConversationUnread{}).
		Where("user_id = ? AND other_id = ?", userID, otherID).
		Update("unread", 0).Error
}

// ListUnreadByUser 获取用户所有未读数大于 0 的会话
func (s *notificationRepoImpl) ListUnreadByUser(ctx context.Context, userID uint64) ([]*model.ConversationUnread, error) {
	var rows []*model.ConversationUnread
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND unread > 0", userID).
		Order("last_message_at DESC").
		Find(&rows).Error
	return rows, err
}

// TotalUnreadByUser 获取用户未读总数
func (s *notificationRepoImpl) TotalUnreadByUser(ctx context.Context, userID uint64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.ConversationUnread{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(unread), 0)").
		Scan(&total).Error
	return total, err
}

// PurgeReadBefore 清理早于 before 且已读尽的计数行，返回删除行数
func (s *notificationRepoImpl) PurgeReadBefore(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("unread = 0 AND updated_at < ?", before).
		Delete(&model.ConversationUnread{})
	return res.RowsAffected, res.Error
}
