package request

// MarkReadRequest REST 已读标记请求（WebSocket 不可用时的兜底）
type MarkReadRequest struct {
	ChatUuid    string `json:"chat_uuid" binding:"required"`
	MessageUuid int64  `json:"message_uuid,string" binding:"required"`
}
