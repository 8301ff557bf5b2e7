// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 路由
// 握手认证由 ChatServer 自行完成（令牌走查询参数）
// 请求示例: wss://host:port/wss?token=<access_token>
func (rt *Router) RegisterWebSocketRoutes(r *gin.Engine) {
	r.GET("/wss", rt.handlers.Ws.Connect)
}
