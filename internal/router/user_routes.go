// Package router 提供 HTTP 路由注册
// 本文件定义用户相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes 注册用户相关路由（需要认证）
func (rt *Router) RegisterUserRoutes(rg *gin.RouterGroup) {
	userGroup := rg.Group("/user")
	{
		userGroup.GET("/me", rt.handlers.User.GetMyInfo)
		userGroup.POST("/update", rt.handlers.User.UpdateUserInfo)
		userGroup.POST("/status", rt.handlers.User.UpdateStatus)
		// 参数路由放最后，避免吞掉 /me
		userGroup.GET("/:uuid", rt.handlers.User.GetUserInfo)
	}
}
