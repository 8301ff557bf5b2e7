package model

import "gorm.io/gorm"

// ChatMember 聊天成员关联表
// 权威的成员名单，连接注册表中的已加入房间集合只是它的缓存
type ChatMember struct {
	gorm.Model
	ChatUuid string `gorm:"type:char(20);index:idx_chat_user,unique;not null;comment:聊天ID"`
	UserUuid string `gorm:"type:char(20);index:idx_chat_user,unique;index;not null;comment:用户ID"`
	Role     int8   `gorm:"default:1;comment:1普通成员 2管理员"`
}

func (ChatMember) TableName() string {
	return "chat_member"
}
