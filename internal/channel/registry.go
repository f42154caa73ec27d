package channel

import (
	log "log/slog"
	"sync"

	"github.com/goccy/go-json"
)

// Registry 服务端路由表：userID -> 活跃连接。
// 路由表只在此处变更，客户端通过注册 / 断开事件申请变更。
type Registry struct {
	mu      sync.RWMutex
	clients map[uint64]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[uint64]*Client),
	}
}

// Register 将连接绑定到用户身份。同一身份重复注册同一连接为幂等；
// 绑定到新连接时旧连接被挤下线（last-registered-wins）。
func (s *Registry) Register(userID uint64, c *Client) {
	s.mu.Lock()
	prev := s.clients[userID]
	if prev == c {
		s.mu.Unlock()
		return
	}
	s.clients[userID] = c
	c.bind(userID)
	s.mu.Unlock()

	if prev != nil {
		log.Info("同一用户重复上线，旧连接被挤下线", "userId", userID, "oldConnId", prev.ConnID, "newConnId", c.ConnID)
		prev.Close()
	}
}

// Unregister 移除路由项。仅当该连接仍是当前路由项时生效，
// 避免迟到的断开事件误删新连接。
func (s *Registry) Unregister(c *Client) {
	userID := c.UserID()
	if userID == 0 {
		return
	}

	s.mu.Lock()
	if s.clients[userID] == c {
		delete(s.clients, userID)
	}
	s.mu.Unlock()
}

// Online 用户是否有活跃连接
func (s *Registry) Online(userID uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.clients[userID]
	return ok
}

// OnlineCount 当前活跃连接数
func (s *Registry) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Route 将事件投递到接收者的活跃连接。
// 接收者不在路由表中时静默丢弃（at-most-once），返回是否投递成功。
func (s *Registry) Route(env *Envelope) bool {
	s.mu.RLock()
	c := s.clients[env.ReceiverID]
	s.mu.RUnlock()

	if c == nil {
		return false
	}

	data, err := json.Marshal(env)
	if err != nil {
		return false
	}
	return c.enqueue(data)
}
