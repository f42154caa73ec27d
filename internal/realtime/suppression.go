package realtime

import (
	"BookItNow/internal/api/dto"
	"context"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/go-resty/resty/v2"
)

// SuppressionFilter 决定入站消息是否需要弹出提示。
// 用户正在读这条消息时（本地会话页打开，或服务端在线信号显示在读），
// 被动提示是多余的；消息本身仍正常送达会话视图。
type SuppressionFilter struct {
	mu   sync.Mutex
	open uint64 // 当前打开的会话对端，0 表示没有

	userID uint64
	rest   *resty.Client
}

func NewSuppressionFilter(baseURL, credential string, userID uint64) *SuppressionFilter {
	return &SuppressionFilter{
		userID: userID,
		rest:   newRestClient(baseURL, credential),
	}
}

// SetOpenConversation 进入与 otherID 的会话页
func (s *SuppressionFilter) SetOpenConversation(otherID uint64) {
	s.mu.Lock()
	s.open = otherID
	s.mu.Unlock()
}

// ClearOpenConversation 离开会话页
func (s *SuppressionFilter) ClearOpenConversation() {
	s.mu.Lock()
	s.open = 0
	s.mu.Unlock()
}

// OpenConversation 当前打开的会话对端
func (s *SuppressionFilter) OpenConversation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// ShouldNotify 是否应为来自 senderID 的消息弹出提示。
// 检查失败时返回 true（fail open）：宁可多提示，不能无声吞掉。
func (s *SuppressionFilter) ShouldNotify(ctx context.Context, senderID uint64) bool {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if open == senderID {
		return false
	}

	var wrapper struct {
		Code int                   `json:"code"`
		Data *dto.PresenceCheckDTO `json:"data"`
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetResult(&wrapper).
		Get(fmt.Sprintf("/api/presence/check/%d/%d", senderID, s.userID))
	if err != nil {
		log.Warn("在线查看状态查询失败，默认提示", "senderId", senderID, "err", err)
		return true
	}
	if resp.IsError() || wrapper.Code != 200 || wrapper.Data == nil {
		return true
	}

	return !wrapper.Data.Viewing
}
