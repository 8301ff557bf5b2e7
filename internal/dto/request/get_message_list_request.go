package request

// GetMessageListRequest 分页拉取历史消息请求
// BeforeUuid 为 0 时从最新一条往前翻
type GetMessageListRequest struct {
	ChatUuid   string `json:"chat_uuid" binding:"required"`
	BeforeUuid int64  `json:"before_uuid,string"`
	Limit      int    `json:"limit"`
}
