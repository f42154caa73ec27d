package service

import (
	"BookItNow/internal/pkg/consts"
	"BookItNow/internal/pkg/redis"
	"context"
	"fmt"
	"time"
)

const defaultViewingTTL = 60 * time.Second

// PresenceService 维护"谁正停留在哪个会话页"的在线信号
type PresenceService interface {
	MarkViewing(ctx context.Context, userID, otherID uint64) error
	ClearViewing(ctx context.Context, userID, otherID uint64) error
	IsViewing(ctx context.Context, userID, otherID uint64) (bool, error)
}

type presenceServiceImpl struct {
	viewingTTL time.Duration
}

func NewPresenceService(viewingTTLSeconds int) PresenceService {
	ttl := defaultViewingTTL
	if viewingTTLSeconds > 0 {
		ttl = time.Duration(viewingTTLSeconds) * time.Second
	}
	return &presenceServiceImpl{viewingTTL: ttl}
}

func viewingKey(userID, otherID uint64) string {
	return consts.IMViewingKey + fmt.Sprintf("%d:%d", userID, otherID)
}

// MarkViewing 标记 userID 正停留在与 otherID 的会话页。
// 带 TTL，前端按心跳周期重复调用以续期，不会留下孤儿标记。
func (s *presenceServiceImpl) MarkViewing(ctx context.Context, userID, otherID uint64) error {
	return redis.SetWithExpiration(ctx, viewingKey(userID, otherID), "1", s.viewingTTL)
}

// ClearViewing 离开会话页时清除标记
func (s *presenceServiceImpl) ClearViewing(ctx context.Context, userID, otherID uint64) error {
	return redis.DeleteKey(ctx, viewingKey(userID, otherID))
}

// IsViewing userID 是否正停留在与 otherID 的会话页
func (s *presenceServiceImpl) IsViewing(ctx context.Context, userID, otherID uint64) (bool, error) {
	return redis.Exists(ctx, viewingKey(userID, otherID))
}
