package handler

import (
	"BookItNow/internal/api/dto"
	"BookItNow/internal/pkg/response"
	"BookItNow/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	presenceService service.PresenceService
}

func NewPresenceHandler(s service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: s}
}

// MarkViewing 标记当前用户正停留在与 other_id 的会话页（心跳续期）
func (s *PresenceHandler) MarkViewing(c *gin.Context) {
	otherID, _ := strconv.ParseUint(c.Param("other_id"), 10, 64)
	if otherID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.presenceService.MarkViewing(c.Request.Context(), userID, otherID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ClearViewing 离开会话页
func (s *PresenceHandler) ClearViewing(c *gin.Context) {
	otherID, _ := strconv.ParseUint(c.Param("other_id"), 10, 64)
	if otherID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.presenceService.ClearViewing(c.Request.Context(), userID, otherID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Check receiver_id 是否正停留在与 sender_id 的会话页
func (s *PresenceHandler) Check(c *gin.Context) {
	senderID, _ := strconv.ParseUint(c.Param("sender_id"), 10, 64)
	receiverID, _ := strconv.ParseUint(c.Param("receiver_id"), 10, 64)
	if senderID == 0 || receiverID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	viewing, err := s.presenceService.IsViewing(c.Request.Context(), receiverID, senderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.PresenceCheckDTO{Viewing: viewing})
}
