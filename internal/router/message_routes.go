// Package router 提供 HTTP 路由注册
// 本文件定义历史消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由（需要认证）
func (rt *Router) RegisterMessageRoutes(rg *gin.RouterGroup) {
	messageGroup := rg.Group("/message")
	{
		messageGroup.POST("/list", rt.handlers.Message.GetMessageList)
		messageGroup.POST("/markRead", rt.handlers.Message.MarkRead)
		messageGroup.POST("/:uuid/delete", rt.handlers.Message.DeleteMessage)
	}
}
