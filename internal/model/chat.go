// Package model 定义数据库实体模型
// 本文件定义聊天（房间）模型
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Chat 聊天模型
// 对应数据库 chat 表，单聊和群聊统一建模为带成员表的聊天
type Chat struct {
	gorm.Model

	// Uuid 聊天唯一标识
	// 格式：C + 17位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:聊天uuid"`

	// Name 聊天名称
	Name string `gorm:"column:name;type:varchar(30);not null;comment:名称"`

	// Avatar 聊天头像
	Avatar string `gorm:"column:avatar;type:char(255);default:default_avatar.png;not null;comment:头像"`

	// OwnerUuid 创建者
	OwnerUuid string `gorm:"column:owner_uuid;index;type:char(20);not null;comment:创建者uuid"`

	// LastMessage 最新消息摘要
	// 冗余存储，用于会话列表显示
	LastMessage string `gorm:"column:last_message;type:TEXT;comment:最新的消息"`

	// LastMessageAt 最后消息时间，用于会话列表排序
	LastMessageAt sql.NullTime `gorm:"column:last_message_at;type:datetime;comment:最近消息时间"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chat"
}
