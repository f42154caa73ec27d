package api

import "BookItNow/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	WSHandler           *handler.WsHandler
	IMHandler           *handler.IMHandler
	NotificationHandler *handler.NotificationHandler
	PresenceHandler     *handler.PresenceHandler
}
