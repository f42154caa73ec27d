package realtime

import (
	"BookItNow/internal/api/dto"
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const restTimeout = 5 * time.Second

func newRestClient(baseURL, credential string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(restTimeout).
		SetAuthToken(credential)
}

// Notifier 本地未读计数聚合器。
// 实时事件驱动增量，权威计数来自服务端快照（Resync 整体替换）。
type Notifier struct {
	mu              sync.Mutex
	total           int64
	perConversation map[uint64]int64

	userID uint64
	rest   *resty.Client
	filter *SuppressionFilter // 可为 nil：不做查看抑制
}

func NewNotifier(baseURL, credential string, userID uint64, filter *SuppressionFilter) *Notifier {
	return &Notifier{
		perConversation: make(map[uint64]int64),
		userID:          userID,
		rest:            newRestClient(baseURL, credential),
		filter:          filter,
	}
}

// OnInboundMessage 处理一条入站消息，返回是否应向用户弹出提示。
// 被抑制的消息不计入未读（用户正在会话页里读它）。
func (s *Notifier) OnInboundMessage(ctx context.Context, senderID uint64) bool {
	if s.filter != nil && !s.filter.ShouldNotify(ctx, senderID) {
		return false
	}

	s.mu.Lock()
	s.perConversation[senderID]++
	s.total++
	s.mu.Unlock()
	return true
}

// Resync 拉取权威快照并整体替换本地计数（上线与重连后调用）。
// 失败时保留本地计数，待下次重试。
func (s *Notifier) Resync(ctx context.Context) error {
	var wrapper struct {
		Code    int                      `json:"code"`
		Message string                   `json:"message"`
		Data    *dto.NotificationListDTO `json:"data"`
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetResult(&wrapper).
		Get(fmt.Sprintf("/api/notifications/%d", s.userID))
	if err != nil {
		return errors.Wrap(err, "拉取未读快照失败")
	}
	if resp.IsError() || wrapper.Code != 200 || wrapper.Data == nil {
		return errors.Errorf("拉取未读快照失败: code=%d msg=%s", wrapper.Code, wrapper.Message)
	}

	fresh := make(map[uint64]int64, len(wrapper.Data.Notifications))
	var total int64
	for _, n := range wrapper.Data.Notifications {
		fresh[n.OtherUserID] = n.Count
		total += n.Count
	}

	s.mu.Lock()
	s.perConversation = fresh
	s.total = total
	s.mu.Unlock()
	return nil
}

// MarkConversationRead 打开会话后清零该会话未读，并通知服务端持久化。
// 本地先清零；REST 失败只记日志，下次 Resync 会校正。
func (s *Notifier) MarkConversationRead(ctx context.Context, otherID uint64) error {
	s.mu.Lock()
	delete(s.perConversation, otherID)
	var total int64
	for _, n := range s.perConversation {
		total += n
	}
	s.total = total
	s.mu.Unlock()

	resp, err := s.rest.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/api/notifications/%d/read/%d", s.userID, otherID))
	if err != nil {
		log.Warn("已读状态上报失败", "otherId", otherID, "err", err)
		return errors.Wrap(err, "已读状态上报失败")
	}
	if resp.IsError() {
		return errors.Errorf("已读状态上报失败: status=%d", resp.StatusCode())
	}
	return nil
}

// TotalUnread 当前未读总数
func (s *Notifier) TotalUnread() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// ConversationUnread 与某人会话的未读数
func (s *Notifier) ConversationUnread(otherID uint64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perConversation[otherID]
}

// Snapshot 本地计数快照副本
func (s *Notifier) Snapshot() map[uint64]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]int64, len(s.perConversation))
	for k, v := range s.perConversation {
		out[k] = v
	}
	return out
}
