package handler

import (
	"BookItNow/internal/api/dto"
	"BookItNow/internal/pkg/response"
	"BookItNow/internal/service"

	"github.com/gin-gonic/gin"
)

type IMHandler struct {
	messageService service.MessageService
}

func NewIMHandler(messageService service.MessageService) *IMHandler {
	return &IMHandler{messageService: messageService}
}

// SendMessage 发送消息接口（REST 入口，与通道 send 事件等价）
func (s *IMHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	// 从 Context 中获取中间件解析出的当前用户 ID
	senderID := c.GetUint64("user_id")

	delivered, err := s.messageService.Deliver(c.Request.Context(), senderID, req.ReceiverID, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.SendMessageDTO{Delivered: delivered})
}
