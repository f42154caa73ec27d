package handler

import (
	"BookItNow/internal/channel"
	"BookItNow/internal/pkg/response"
	"BookItNow/internal/pkg/security"
	"BookItNow/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	registry       *channel.Registry
	messageService service.MessageService
}

func NewWsHandler(registry *channel.Registry, messageService service.MessageService) *WsHandler {
	return &WsHandler{
		registry:       registry,
		messageService: messageService,
	}
}

// Connect 建立通道连接。连接建立后客户端需发送 user-connected 事件
// 才会进入路由表；注册身份必须与 Token 身份一致。
func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}

	// 升级 Websocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}

	client := channel.NewClient(conn)
	log.Info("通道连接已建立", "connId", client.ConnID, "userId", claims.UserID)

	go client.WritePump()

	ctx := c.Request.Context()
	client.ReadPump(func(env *channel.Envelope) {
		switch env.Type {
		case channel.EventRegister:
			// 服务端独立校验：注册身份以 Token 为准，不信任客户端声明
			if env.UserID != claims.UserID {
				log.Warn("注册身份与 Token 不符，忽略", "connId", client.ConnID, "claimed", env.UserID, "actual", claims.UserID)
				return
			}
			s.registry.Register(claims.UserID, client)
			log.Info("用户身份已注册", "connId", client.ConnID, "userId", claims.UserID)

		case channel.EventSend:
			if client.UserID() == 0 {
				log.Warn("未注册身份的连接尝试发消息", "connId", client.ConnID)
				return
			}
			_, err := s.messageService.Deliver(ctx, client.UserID(), env.ReceiverID, env.Body)
			if err != nil {
				log.Warn("消息投递被拒绝", "connId", client.ConnID, "err", err)
			}

		default:
			log.Warn("未知事件类型", "connId", client.ConnID, "type", env.Type)
		}
	})

	// 读循环退出即视为断开：移除路由项，防止后续消息投向死连接
	s.registry.Unregister(client)
	client.Close()
	log.Info("通道连接已断开", "connId", client.ConnID, "userId", client.UserID())
}
