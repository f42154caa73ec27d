package channel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames chan []byte
	closed bool
	done   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.done
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.frames <- data
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func recvEnvelope(t *testing.T, f *fakeConn) *Envelope {
	t.Helper()
	select {
	case data := <-f.frames:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return &env
	case <-time.After(time.Second):
		t.Fatal("等待下发事件超时")
		return nil
	}
}

func startClient(reg *Registry, userID uint64) (*Client, *fakeConn) {
	conn := newFakeConn()
	c := NewClient(conn)
	go c.WritePump()
	reg.Register(userID, c)
	return c, conn
}

func TestRouteFIFO(t *testing.T) {
	reg := NewRegistry()
	_, conn := startClient(reg, 2)

	for _, body := range []string{"m1", "m2", "m3"} {
		ok := reg.Route(&Envelope{Type: EventMessage, SenderID: 1, ReceiverID: 2, Body: body})
		assert.True(t, ok)
	}

	for _, want := range []string{"m1", "m2", "m3"} {
		env := recvEnvelope(t, conn)
		assert.Equal(t, EventMessage, env.Type)
		assert.Equal(t, uint64(1), env.SenderID)
		assert.Equal(t, want, env.Body)
	}
}

func TestRouteOfflineDrop(t *testing.T) {
	reg := NewRegistry()
	_, conn := startClient(reg, 2)

	ok := reg.Route(&Envelope{Type: EventMessage, SenderID: 1, ReceiverID: 99, Body: "hi"})
	assert.False(t, ok)

	// 在线用户不应收到发给别人的消息
	select {
	case <-conn.frames:
		t.Fatal("消息被投递到了错误的连接")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLastRegisteredWins(t *testing.T) {
	reg := NewRegistry()
	oldClient, oldConn := startClient(reg, 1)
	_, newConn := startClient(reg, 1)

	assert.True(t, oldConn.isClosed())
	assert.True(t, reg.Online(1))

	reg.Route(&Envelope{Type: EventMessage, SenderID: 2, ReceiverID: 1, Body: "hello"})
	env := recvEnvelope(t, newConn)
	assert.Equal(t, "hello", env.Body)

	// 迟到的旧连接注销不能挤掉新连接
	reg.Unregister(oldClient)
	assert.True(t, reg.Online(1))
	assert.True(t, reg.Route(&Envelope{Type: EventMessage, SenderID: 2, ReceiverID: 1, Body: "still here"}))
}

func TestRegisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	c, conn := startClient(reg, 1)

	reg.Register(1, c)
	assert.False(t, conn.isClosed())
	assert.Equal(t, 1, reg.OnlineCount())
}

func TestUnregister(t *testing.T) {
	reg := NewRegistry()
	c, _ := startClient(reg, 1)

	reg.Unregister(c)
	assert.False(t, reg.Online(1))
	assert.False(t, reg.Route(&Envelope{Type: EventMessage, SenderID: 2, ReceiverID: 1, Body: "hi"}))
}
