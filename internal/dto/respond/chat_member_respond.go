package respond

// ChatMemberRespond 聊天成员响应
type ChatMemberRespond struct {
	UserUuid string `json:"user_uuid"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Role     int8   `json:"role"`
	Status   string `json:"status"`
}
