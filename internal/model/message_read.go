package model

import (
	"time"

	"gorm.io/gorm"
)

// MessageRead 消息已读标记
// 每个 (消息, 用户) 至多一行，发送者在消息落库时同步写入自己的一行
type MessageRead struct {
	gorm.Model
	MessageUuid int64     `gorm:"type:bigint;index:idx_msg_user,unique;not null;comment:消息雪花ID"`
	ChatUuid    string    `gorm:"type:char(20);index;not null;comment:聊天uuid"`
	UserUuid    string    `gorm:"type:char(20);index:idx_msg_user,unique;not null;comment:用户uuid"`
	ReadAt      time.Time `gorm:"not null;comment:已读时间"`
}

func (MessageRead) TableName() string {
	return "message_read"
}
