package constants

import "time"

const (
	CHANNEL_SIZE  = 100   // 通道大小
	FILE_MAX_SIZE = 50000 // 文件最大大小

	// SESSION_CACHE_TTL 会话与用户快照在 Redis 中的过期时间
	SESSION_CACHE_TTL = 300 * time.Second

	// LAST_ACTIVE_INTERVAL lastActive 节流写回窗口
	// 同一会话在该窗口内最多落库一次
	LAST_ACTIVE_INTERVAL = 5 * time.Minute

	// MESSAGE_PAGE_SIZE 历史消息分页默认大小
	MESSAGE_PAGE_SIZE = 50
)
