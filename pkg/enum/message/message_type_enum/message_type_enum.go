package message_type_enum

// 消息类型
const (
	Text int8 = 0 // 文本
	File int8 = 1 // 文件/图片
	Call int8 = 2 // 通话记录占位（信令本身不落库）
)
