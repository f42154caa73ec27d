package handler

import (
	"BookItNow/internal/channel"
	"BookItNow/internal/pkg/security"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliverCall struct {
	senderID   uint64
	receiverID uint64
	body       string
}

type fakeMessageService struct {
	mu    sync.Mutex
	calls []deliverCall
}

func (s *fakeMessageService) Deliver(_ context.Context, senderID, receiverID uint64, body string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, deliverCall{senderID: senderID, receiverID: receiverID, body: body})
	return true, nil
}

func (s *fakeMessageService) deliverCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newWsFixture(t *testing.T) (*channel.Registry, *fakeMessageService, *httptest.Server) {
	gin.SetMode(gin.TestMode)
	registry := channel.NewRegistry()
	svc := &fakeMessageService{}

	r := gin.New()
	r.GET("/api/im", NewWsHandler(registry, svc).Connect)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return registry, svc, ts
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/im?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, env *channel.Envelope) {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestConnectRejectsMissingToken(t *testing.T) {
	_, _, ts := newWsFixture(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/im"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusOK, resp.StatusCode) // 业务错误码在响应体里
	}

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token=not-a-token", nil)
	assert.Error(t, err)
	_ = resp
}

// 注册身份以 Token 为准：声明他人身份的注册事件被忽略
func TestConnectRejectsMismatchedRegister(t *testing.T) {
	registry, _, ts := newWsFixture(t)
	token, err := security.GenerateToken(1, security.RoleUser)
	require.NoError(t, err)
	conn := dialWS(t, ts, token)

	sendEvent(t, conn, &channel.Envelope{Type: channel.EventRegister, UserID: 2})

	// 等足够久确认路由表始终为空，冒名身份与真实身份都没进表
	time.Sleep(100 * time.Millisecond)
	assert.False(t, registry.Online(2))
	assert.False(t, registry.Online(1))
	assert.Zero(t, registry.OnlineCount())

	// 同一连接随后以真实身份注册仍然有效
	sendEvent(t, conn, &channel.Envelope{Type: channel.EventRegister, UserID: 1})
	assert.Eventually(t, func() bool {
		return registry.Online(1)
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, registry.Online(2))
}

// 未注册身份的连接发消息被拒，注册后才进入投递
func TestConnectSendRequiresRegistration(t *testing.T) {
	registry, svc, ts := newWsFixture(t)
	token, err := security.GenerateToken(1, security.RoleUser)
	require.NoError(t, err)
	conn := dialWS(t, ts, token)

	sendEvent(t, conn, &channel.Envelope{Type: channel.EventSend, ReceiverID: 2, Body: "early"})
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, svc.deliverCount())

	sendEvent(t, conn, &channel.Envelope{Type: channel.EventRegister, UserID: 1})
	require.Eventually(t, func() bool {
		return registry.Online(1)
	}, 2*time.Second, 10*time.Millisecond)

	sendEvent(t, conn, &channel.Envelope{Type: channel.EventSend, ReceiverID: 2, Body: "hello"})
	assert.Eventually(t, func() bool {
		return svc.deliverCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, deliverCall{senderID: 1, receiverID: 2, body: "hello"}, svc.calls[0])
}

// 连接断开后路由项随之移除
func TestConnectUnregistersOnDisconnect(t *testing.T) {
	registry, _, ts := newWsFixture(t)
	token, err := security.GenerateToken(1, security.RoleUser)
	require.NoError(t, err)
	conn := dialWS(t, ts, token)

	sendEvent(t, conn, &channel.Envelope{Type: channel.EventRegister, UserID: 1})
	require.Eventually(t, func() bool {
		return registry.Online(1)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return !registry.Online(1)
	}, 2*time.Second, 10*time.Millisecond)
}
