package session_status_enum

// 会话状态
const (
	VALID       int8 = 0 // 有效
	INVALIDATED int8 = 1 // 已作废（登出、改密、重置）
)
