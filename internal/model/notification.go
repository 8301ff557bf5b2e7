// Package model 定义数据库实体模型
// 本文件定义通知模型
package model

import (
	"gorm.io/gorm"
)

// Notification 通知模型
// 对应数据库 notification 表
// 先落库再尝试实时推送；推送失败不回滚，记录留待离线拉取
type Notification struct {
	gorm.Model

	// Uuid 通知唯一标识（雪花 ID）
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:通知雪花ID"`

	// RecipientId 接收者 UUID
	RecipientId string `gorm:"column:recipient_id;index;type:char(20);not null;comment:接收者uuid"`

	// SenderId 触发通知的用户 UUID，系统通知为空
	SenderId string `gorm:"column:sender_id;type:char(20);comment:发送者uuid"`

	// Type 通知类型，见 notification_type_enum
	Type string `gorm:"column:type;type:char(30);not null;comment:通知类型"`

	// Title 标题
	Title string `gorm:"column:title;type:varchar(100);not null;comment:标题"`

	// Content 正文
	Content string `gorm:"column:content;type:TEXT;comment:正文"`

	// Payload 自由格式的附加数据，JSON 文本
	Payload string `gorm:"column:payload;type:TEXT;comment:附加数据"`

	// IsRead 是否已读
	IsRead bool `gorm:"column:is_read;index;not null;default:false;comment:是否已读"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notification"
}
