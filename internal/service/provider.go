// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/service/auth"
	"nexchat_server/internal/service/cache"
	"nexchat_server/internal/service/chat"
	"nexchat_server/internal/service/chatroom"
	"nexchat_server/internal/service/message"
	"nexchat_server/internal/service/notification"
	"nexchat_server/internal/service/user"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 service.Svc 访问各个 Service
type Services struct {
	Auth         AuthService
	User         UserService
	ChatRoom     ChatRoomService
	Message      MessageService
	Notification NotificationService

	// Cache 读穿缓存层，中间件核验会话时直接使用
	Cache *cache.Service
	// ChatServer 实时服务器，WebSocket 握手入口在它身上
	ChatServer *chat.ChatServer
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入流程：
//  1. 接收 Repository 聚合与缓存、实时服务器实例
//  2. 创建各个 Service 实例，注入依赖
//  3. 返回 Services 聚合
func NewServices(repos *repository.Repositories, cacheSvc *cache.Service, chatServer *chat.ChatServer) *Services {
	return &Services{
		Auth:         auth.NewAuthService(repos, cacheSvc, chatServer),
		User:         user.NewUserService(repos, cacheSvc, chatServer),
		ChatRoom:     chatroom.NewChatRoomService(repos, cacheSvc, chatServer),
		Message:      message.NewMessageService(repos),
		Notification: notification.NewService(repos, chatServer.Fanout),
		Cache:        cacheSvc,
		ChatServer:   chatServer,
	}
}

// Svc 全局 Services 实例
// Handler 层通过 service.Svc.Auth.Login() 等方式调用
var Svc *Services

// InitServices 初始化全局 Services 实例
// 应在 main.go 中调用，在 Repository 与 ChatServer 初始化之后
func InitServices(repos *repository.Repositories, cacheSvc *cache.Service, chatServer *chat.ChatServer) {
	Svc = NewServices(repos, cacheSvc, chatServer)
}
