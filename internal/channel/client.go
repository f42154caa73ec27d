package channel

import (
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 256
	writeTimeout   = 10 * time.Second
)

// ConnLike 抽象底层连接，便于测试注入假连接
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client 一条活跃的通道连接
type Client struct {
	ConnID string

	conn      ConnLike
	send      chan []byte
	userID    atomic.Uint64 // 注册前为 0
	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn ConnLike) *Client {
	return &Client{
		ConnID: uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// UserID 当前绑定的用户身份，未注册时为 0
func (s *Client) UserID() uint64 {
	return s.userID.Load()
}

func (s *Client) bind(userID uint64) {
	s.userID.Store(userID)
}

// Close 幂等关闭：断开底层连接并终止写循环
func (s *Client) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// enqueue 入队出站数据；连接已关闭或缓冲已满时丢弃
func (s *Client) enqueue(data []byte) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		log.Warn("发送缓冲已满，消息丢弃", "connId", s.ConnID, "userId", s.UserID())
		return false
	}
}

// ReadPump 读循环：逐条解码入站事件并交给 handle，连接出错即返回
func (s *Client) ReadPump(handle func(*Envelope)) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn("入站事件解码失败", "connId", s.ConnID, "err", err)
			continue
		}
		handle(&env)
	}
}

// WritePump 写循环：单协程串行下发，保证单连接内 FIFO
func (s *Client) WritePump() {
	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error("通道下发失败", "connId", s.ConnID, "userId", s.UserID(), "err", err)
				s.Close()
				return
			}
		case <-s.closed:
			return
		}
	}
}
