package realtime

import (
	"BookItNow/internal/channel"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// ErrChannelUnavailable 通道建立失败或已断开
var ErrChannelUnavailable = errors.New("通道不可用")

// State 通道状态
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateOffline // 连接意外断开，可按退避策略重连
	StateClosed  // 调用方主动关闭
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateOffline:
		return "offline"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// MessageHandler 入站消息回调
type MessageHandler func(senderID uint64, body string)

const channelWriteTimeout = 10 * time.Second

// Channel 一条由调用方持有的通道连接。
// 每个客户端进程同一时刻只应持有一条；重连即 Close 后重新 Dial。
type Channel struct {
	conn  *websocket.Conn
	state atomic.Int32

	mu         sync.Mutex
	handlers   map[int]MessageHandler
	nextID     int
	registered uint64 // 已注册的身份，0 表示未注册

	writeMu sync.Mutex
	done    chan struct{}
	closeMu sync.Once
}

// Dial 建立一条通道连接，凭证以 token 参数随连接带上
func Dial(ctx context.Context, endpoint, credential string) (*Channel, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	q := u.Query()
	q.Set("token", credential)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	ch := &Channel{
		conn:     conn,
		handlers: make(map[int]MessageHandler),
		done:     make(chan struct{}),
	}
	ch.state.Store(int32(StateOpen))

	go ch.readLoop()
	return ch, nil
}

// State 当前通道状态
func (s *Channel) State() State {
	return State(s.state.Load())
}

// RegisterIdentity 向服务端注册身份，使发往该身份的消息路由到本连接。
// 同一连接上重复注册同一身份为幂等。
func (s *Channel) RegisterIdentity(userID uint64) error {
	s.mu.Lock()
	if s.registered == userID {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// 写失败时不落账，调用方重试会再次发出注册事件
	if err := s.writeEnvelope(&channel.Envelope{
		Type:   channel.EventRegister,
		UserID: userID,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.registered = userID
	s.mu.Unlock()
	return nil
}

// Send 发送消息，fire-and-forget：不等待投递回执
func (s *Channel) Send(receiverID uint64, body string) error {
	return s.writeEnvelope(&channel.Envelope{
		Type:       channel.EventSend,
		ReceiverID: receiverID,
		Body:       body,
	})
}

// OnMessage 订阅入站消息，返回的 disposer 用于解除本次订阅。
// 为同一会话重建订阅前必须先调用旧的 disposer。
func (s *Channel) OnMessage(fn MessageHandler) (dispose func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Close 主动关闭：同步清空所有订阅后断开连接，
// 保证重连后旧连接的处理器绝不会再被触发。
func (s *Channel) Close() {
	s.closeMu.Do(func() {
		s.mu.Lock()
		s.handlers = make(map[int]MessageHandler)
		s.registered = 0
		s.mu.Unlock()

		s.state.Store(int32(StateClosed))
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *Channel) writeEnvelope(env *channel.Envelope) error {
	if s.State() != StateOpen {
		return ErrChannelUnavailable
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(channelWriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	return nil
}

func (s *Channel) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// 主动关闭，状态已是 Closed
			default:
				s.state.Store(int32(StateOffline))
				log.Warn("通道连接断开", "err", err)
			}
			return
		}

		var env channel.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn("入站事件解码失败", "err", err)
			continue
		}
		if env.Type != channel.EventMessage {
			continue
		}

		s.mu.Lock()
		snapshot := make([]MessageHandler, 0, len(s.handlers))
		for _, fn := range s.handlers {
			snapshot = append(snapshot, fn)
		}
		s.mu.Unlock()

		// Close 在快照与分发之间到达时，已清空的处理器不能再触发
		select {
		case <-s.done:
			return
		default:
		}
		for _, fn := range snapshot {
			fn(env.SenderID, env.Body)
		}
	}
}
