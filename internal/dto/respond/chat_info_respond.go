package respond

// ChatInfoRespond 聊天信息响应
type ChatInfoRespond struct {
	Uuid          string `json:"uuid"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar"`
	OwnerUuid     string `json:"owner_uuid"`
	LastMessage   string `json:"last_message"`
	LastMessageAt string `json:"last_message_at"`
}
