// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"

	"nexchat_server/internal/handler"
	"nexchat_server/internal/infrastructure/middleware"
	"nexchat_server/internal/service/cache"
)

// Router 路由注册器
// 持有 Handler 聚合与缓存层（JWT 中间件核验会话用）
type Router struct {
	handlers *handler.Handlers
	cacheSvc *cache.Service
}

// NewRouter 创建路由注册器
func NewRouter(handlers *handler.Handlers, cacheSvc *cache.Service) *Router {
	return &Router{handlers: handlers, cacheSvc: cacheSvc}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	// 公开接口（无需认证）
	rt.RegisterAuthPublicRoutes(r)
	// WebSocket 握手自带认证，不挂 JWT 中间件
	rt.RegisterWebSocketRoutes(r)

	// 需要认证的接口
	authed := r.Group("/")
	authed.Use(middleware.JWTAuth(rt.cacheSvc))
	{
		rt.RegisterAuthRoutes(authed)
		rt.RegisterUserRoutes(authed)
		rt.RegisterChatRoutes(authed)
		rt.RegisterMessageRoutes(authed)
		rt.RegisterNotificationRoutes(authed)
	}
}
