// Package model 定义数据库实体模型
// 本文件定义登录会话模型，一条记录对应一次已认证登录
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// Session 登录会话模型
// 对应数据库 session 表
// 同一 token 在数据库视角下至多对应一条未作废会话；
// 缓存中的副本允许在过期窗口内短暂滞后
type Session struct {
	gorm.Model

	// Token 不透明会话令牌（uuid）
	Token string `gorm:"column:token;uniqueIndex;type:char(36);not null;comment:会话令牌"`

	// UserUuid 会话归属用户
	UserUuid string `gorm:"column:user_uuid;index;type:char(20);not null;comment:用户uuid"`

	// UserAgent 登录设备元信息
	UserAgent string `gorm:"column:user_agent;type:varchar(255);comment:设备信息"`

	// ClientIP 登录 IP
	ClientIP string `gorm:"column:client_ip;type:char(45);comment:登录IP"`

	// LastActiveAt 最近活跃时间
	// 节流写回：每 5 分钟窗口内至多落库一次，允许滞后
	LastActiveAt sql.NullTime `gorm:"column:last_active_at;type:datetime;comment:最近活跃时间"`

	// Status 会话状态，0 有效 1 已作废
	// 登出、改密（其他会话）、重置密码（全部会话）时置为作废
	Status int8 `gorm:"column:status;not null;default:0;comment:状态，0.有效，1.已作废"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "session"
}
