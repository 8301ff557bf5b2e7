// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
// 接口设计遵循依赖倒置原则，便于测试和解耦
package service

import (
	"context"

	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/dto/respond"
	"nexchat_server/internal/model"
)

// AuthService 认证业务接口
type AuthService interface {
	// Register 用户注册，注册即登录
	Register(ctx context.Context, req request.RegisterRequest, userAgent, clientIP string) (*respond.RegisterRespond, error)
	// Login 密码登录
	Login(ctx context.Context, req request.LoginRequest, userAgent, clientIP string) (*respond.LoginRespond, error)
	// Logout 登出，作废当前会话
	Logout(ctx context.Context, sessionToken string) error
	// ChangePassword 修改密码，踢掉其他设备
	ChangePassword(ctx context.Context, userUuid, sessionToken string, req request.ChangePasswordRequest) error
	// RefreshToken 刷新访问令牌
	RefreshToken(ctx context.Context, refreshToken string) (*respond.RefreshTokenRespond, error)
}

// UserService 用户业务接口
type UserService interface {
	// GetUserInfo 获取用户资料
	GetUserInfo(ctx context.Context, uuid string) (*respond.GetUserInfoRespond, error)
	// UpdateUserInfo 更新用户资料
	UpdateUserInfo(ctx context.Context, uuid string, req request.UpdateUserInfoRequest) error
	// UpdateStatus 手动切换在线状态
	UpdateStatus(ctx context.Context, uuid string, req request.UpdateStatusRequest) error
}

// ChatRoomService 聊天管理业务接口
type ChatRoomService interface {
	// CreateChat 创建聊天，创建者成为管理员
	CreateChat(ctx context.Context, ownerUuid string, req request.CreateChatRequest) (*respond.ChatInfoRespond, error)
	// JoinChat 加入聊天
	JoinChat(ctx context.Context, chatUuid, userUuid string) error
	// LeaveChat 退出聊天
	LeaveChat(ctx context.Context, chatUuid, userUuid string) error
	// GetChatInfo 获取聊天信息
	GetChatInfo(ctx context.Context, chatUuid, userUuid string) (*respond.ChatInfoRespond, error)
	// GetMembers 获取成员列表
	GetMembers(ctx context.Context, chatUuid, userUuid string) ([]respond.ChatMemberRespond, error)
}

// MessageService 消息业务接口
type MessageService interface {
	// GetMessageList 分页拉取历史消息
	GetMessageList(ctx context.Context, userUuid string, req request.GetMessageListRequest) ([]respond.GetMessageListRespond, error)
	// MarkRead REST 已读标记
	MarkRead(ctx context.Context, userUuid string, req request.MarkReadRequest) error
	// DeleteMessage 墓碑删除
	DeleteMessage(ctx context.Context, userUuid string, messageUuid int64) error
}

// NotificationService 通知业务接口
type NotificationService interface {
	// Notify 持久化并尽力推送一条通知
	Notify(ctx context.Context, recipientId, senderId, kind, title, content, payload string) (int64, error)
	// List 分页拉取通知
	List(ctx context.Context, recipientId string, limit, offset int) ([]model.Notification, error)
	// UnreadCount 未读数
	UnreadCount(ctx context.Context, recipientId string) (int64, error)
	// MarkRead 标记单条已读
	MarkRead(ctx context.Context, uuid int64, recipientId string) error
}
