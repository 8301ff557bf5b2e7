// Package router 提供 HTTP 路由注册
// 本文件定义聊天管理相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes 注册聊天管理相关路由（需要认证）
func (rt *Router) RegisterChatRoutes(rg *gin.RouterGroup) {
	chatGroup := rg.Group("/chat")
	{
		chatGroup.POST("/create", rt.handlers.ChatRoom.CreateChat)
		chatGroup.GET("/:uuid", rt.handlers.ChatRoom.GetChatInfo)
		chatGroup.POST("/:uuid/join", rt.handlers.ChatRoom.JoinChat)
		chatGroup.POST("/:uuid/leave", rt.handlers.ChatRoom.LeaveChat)
		chatGroup.GET("/:uuid/members", rt.handlers.ChatRoom.GetMembers)
	}
}
