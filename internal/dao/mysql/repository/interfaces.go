// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"time"

	"nexchat_server/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	// FindByUuid 根据 UUID 查找用户
	FindByUuid(uuid string) (*model.UserInfo, error)
	// FindByEmail 根据邮箱查找用户
	FindByEmail(email string) (*model.UserInfo, error)
	// Create 创建新用户
	Create(user *model.UserInfo) error
	// UpdateUserInfo 更新用户资料
	UpdateUserInfo(user *model.UserInfo) error
	// UpdatePassword 更新密码（明文经模型 Hook 加密）
	UpdatePassword(uuid, rawPassword string) error
	// UpdateStatus 写入在线状态与对应时间戳
	UpdateStatus(uuid, status string, at time.Time) error
}

// SessionRepository 登录会话数据访问接口
type SessionRepository interface {
	// FindByToken 根据令牌查找有效会话
	FindByToken(token string) (*model.Session, error)
	// Create 创建会话
	Create(session *model.Session) error
	// UpdateLastActive 写回最近活跃时间
	UpdateLastActive(token string, at time.Time) error
	// InvalidateByToken 作废单个会话
	InvalidateByToken(token string) error
	// InvalidateByUserUuid 作废用户全部会话，excludeToken 非空时保留该会话
	InvalidateByUserUuid(userUuid string, excludeToken string) error
}

// ChatRepository 聊天数据访问接口
type ChatRepository interface {
	// FindByUuid 根据 UUID 查找聊天
	FindByUuid(uuid string) (*model.Chat, error)
	// Create 创建聊天
	Create(chat *model.Chat) error
	// UpdateLastMessage 更新最新消息指针
	UpdateLastMessage(uuid, preview string, at time.Time) error
}

// ChatMemberRepository 聊天成员数据访问接口
// 权威成员名单，realtime 层每次鉴权都回源到这里
type ChatMemberRepository interface {
	// FindByChatUuid 查找聊天的全部成员
	FindByChatUuid(chatUuid string) ([]model.ChatMember, error)
	// FindByUserUuid 查找用户加入的全部聊天
	FindByUserUuid(userUuid string) ([]model.ChatMember, error)
	// FindMember 查找某用户在某聊天中的成员记录
	FindMember(chatUuid, userUuid string) (*model.ChatMember, error)
	// Create 添加成员
	Create(member *model.ChatMember) error
	// Delete 移除成员
	Delete(chatUuid, userUuid string) error
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 创建消息
	Create(message *model.Message) error
	// FindByUuid 根据雪花 ID 查找消息
	FindByUuid(uuid int64) (*model.Message, error)
	// FindByChatUuid 分页查找聊天的历史消息（含墓碑）
	FindByChatUuid(chatUuid string, beforeUuid int64, limit int) ([]model.Message, error)
	// Tombstone 墓碑删除：清空内容、置删除标志，保留行
	Tombstone(uuid int64) error
	// MarkRead 写入已读标记，重复标记不报错
	MarkRead(read *model.MessageRead) error
}

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	// Create 创建通知
	Create(notification *model.Notification) error
	// FindByRecipient 分页查找接收者的通知
	FindByRecipient(recipientId string, limit, offset int) ([]model.Notification, error)
	// CountUnread 统计未读数
	CountUnread(recipientId string) (int64, error)
	// MarkRead 标记单条已读
	MarkRead(uuid int64, recipientId string) error
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db           *gorm.DB
	User         UserRepository
	Session      SessionRepository
	Chat         ChatRepository
	ChatMember   ChatMemberRepository
	Message      MessageRepository
	Notification NotificationRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Chat:         NewChatRepository(db),
		ChatMember:   NewChatMemberRepository(db),
		Message:      NewMessageRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
