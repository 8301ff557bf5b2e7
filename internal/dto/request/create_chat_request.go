package request

// CreateChatRequest 创建聊天请求，创建者自动成为管理员
type CreateChatRequest struct {
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar"`
}
