package dto

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	ReceiverID uint64 `json:"receiver_id" binding:"required"`
	Body       string `json:"body" binding:"required"`
}

// SendMessageDTO 发送结果：是否送达（未送达即按 at-most-once 丢弃）
type SendMessageDTO struct {
	Delivered bool `json:"delivered"`
}
