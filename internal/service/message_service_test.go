package service

import (
	"BookItNow/internal/api/dto"
	"BookItNow/internal/channel"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn 假连接：投递结果留在发送缓冲里，不跑写循环
type stubConn struct{}

func (stubConn) ReadMessage() (int, []byte, error)  { select {} }
func (stubConn) WriteMessage(_ int, _ []byte) error { return nil }
func (stubConn) SetWriteDeadline(_ time.Time) error { return nil }
func (stubConn) Close() error                       { return nil }

type fakePresence struct {
	viewing bool
	err     error
	calls   int
}

func (s *fakePresence) MarkViewing(_ context.Context, _, _ uint64) error  { return nil }
func (s *fakePresence) ClearViewing(_ context.Context, _, _ uint64) error { return nil }
func (s *fakePresence) IsViewing(_ context.Context, _, _ uint64) (bool, error) {
	s.calls++
	return s.viewing, s.err
}

type recordedInbound struct {
	receiverID uint64
	senderID   uint64
}

type fakeNotification struct {
	recorded []recordedInbound
}

func (s *fakeNotification) GetCounts(_ context.Context, _ uint64) (*dto.NotificationListDTO, error) {
	return nil, nil
}
func (s *fakeNotification) MarkConversationRead(_ context.Context, _, _ uint64) error { return nil }
func (s *fakeNotification) RecordInbound(_ context.Context, receiverID, senderID uint64) error {
	s.recorded = append(s.recorded, recordedInbound{receiverID: receiverID, senderID: senderID})
	return nil
}

func newDeliverFixture(online bool) (*channel.Registry, *fakePresence, *fakeNotification, MessageService) {
	registry := channel.NewRegistry()
	if online {
		registry.Register(2, channel.NewClient(stubConn{}))
	}
	presence := &fakePresence{}
	notification := &fakeNotification{}
	return registry, presence, notification, NewMessageService(registry, presence, notification)
}

func TestDeliverOnlineCountsUnread(t *testing.T) {
	_, _, notification, svc := newDeliverFixture(true)

	delivered, err := svc.Deliver(context.Background(), 1, 2, "hello")
	require.NoError(t, err)
	assert.True(t, delivered)
	require.Len(t, notification.recorded, 1)
	assert.Equal(t, recordedInbound{receiverID: 2, senderID: 1}, notification.recorded[0])
}

// 接收方不在线：消息静默丢弃，未读不计
func TestDeliverOfflineDropsSilently(t *testing.T) {
	_, presence, notification, svc := newDeliverFixture(false)

	delivered, err := svc.Deliver(context.Background(), 1, 2, "hello")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, notification.recorded)
	assert.Zero(t, presence.calls)
}

// 接收方正停留在会话页：送达但不计未读
func TestDeliverViewingSkipsUnread(t *testing.T) {
	_, presence, notification, svc := newDeliverFixture(true)
	presence.viewing = true

	delivered, err := svc.Deliver(context.Background(), 1, 2, "hello")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Empty(t, notification.recorded)
}

// 查看状态查询失败按未在查看处理，照常计未读
func TestDeliverPresenceErrorStillCounts(t *testing.T) {
	_, presence, notification, svc := newDeliverFixture(true)
	presence.err = errors.New("redis down")

	delivered, err := svc.Deliver(context.Background(), 1, 2, "hello")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Len(t, notification.recorded, 1)
}

func TestDeliverInvalidTarget(t *testing.T) {
	_, _, notification, svc := newDeliverFixture(true)

	_, err := svc.Deliver(context.Background(), 1, 0, "hello")
	assert.ErrorIs(t, err, ErrTargetUserInvalid)

	_, err = svc.Deliver(context.Background(), 1, 1, "hello")
	assert.ErrorIs(t, err, ErrSendToSelf)

	assert.Empty(t, notification.recorded)
}
