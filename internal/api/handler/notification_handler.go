package handler

import (
	"BookItNow/internal/pkg/response"
	"BookItNow/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: s}
}

// GetCounts 获取权威未读快照，只能查自己的
func (s *NotificationHandler) GetCounts(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if userID == 0 || userID != c.GetUint64("user_id") {
		response.Error(c, service.UnauthorizedError)
		return
	}

	res, err := s.notificationService.GetCounts(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkConversationRead 标记与某人的会话已读
func (s *NotificationHandler) MarkConversationRead(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	otherID, _ := strconv.ParseUint(c.Param("other_id"), 10, 64)
	if userID == 0 || userID != c.GetUint64("user_id") {
		response.Error(c, service.UnauthorizedError)
		return
	}

	if err := s.notificationService.MarkConversationRead(c.Request.Context(), userID, otherID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
