// Package model 定义数据库实体模型
// 本文件定义消息模型，用于存储聊天消息
package model

import (
	"gorm.io/gorm"
)

// Message 消息模型
// 对应数据库 message 表
// 删除是墓碑式的：内容清空、标志置位，行本身保留，
// 保证已读回执与回复引用的 ID 不悬空
type Message struct {
	gorm.Model

	// Uuid 消息唯一标识
	// 使用雪花算法生成的 int64 类型 ID
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ChatUuid 所属聊天
	ChatUuid string `gorm:"column:chat_uuid;index;type:char(20);not null;comment:聊天uuid"`

	// SendId 发送者 UUID
	SendId string `gorm:"column:send_id;index;type:char(20);not null;comment:发送者uuid"`

	// Type 消息类型
	// 0=文本，1=文件/图片，2=通话记录
	Type int8 `gorm:"column:type;not null;comment:消息类型，0.文本，1.文件，2.通话"`

	// Content 消息文本内容
	Content string `gorm:"column:content;type:TEXT;comment:消息内容"`

	// Url 附件 URL，文件消息使用
	Url string `gorm:"column:url;type:char(255);comment:附件url"`

	// FileType 文件 MIME 类型，如 "image/jpeg"
	FileType string `gorm:"column:file_type;type:char(50);comment:文件类型"`

	// FileName 文件名
	FileName string `gorm:"column:file_name;type:varchar(50);comment:文件名"`

	// FileSize 文件大小，字符串格式如 "1.5MB"
	FileSize string `gorm:"column:file_size;type:char(20);comment:文件大小"`

	// ReplyToUuid 被回复消息的雪花 ID，0 表示非回复
	ReplyToUuid int64 `gorm:"column:reply_to_uuid;type:bigint;default:0;comment:回复的消息ID"`

	// Edited 是否被编辑过
	Edited bool `gorm:"column:edited;not null;default:false;comment:是否编辑过"`

	// Deleted 墓碑标志，true 时 Content 已被清空
	Deleted bool `gorm:"column:deleted;not null;default:false;comment:是否已删除"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}
