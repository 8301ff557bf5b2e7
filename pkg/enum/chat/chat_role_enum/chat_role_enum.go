package chat_role_enum

// 聊天成员角色
const (
	Member int8 = 1 // 普通成员
	Admin  int8 = 2 // 管理员
)
