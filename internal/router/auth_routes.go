// Package router 提供 HTTP 路由注册
// 本文件定义认证相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthPublicRoutes 注册无需认证的认证路由
func (rt *Router) RegisterAuthPublicRoutes(r *gin.Engine) {
	authGroup := r.Group("/auth")
	{
		// POST /auth/register - 用户注册
		authGroup.POST("/register", rt.handlers.Auth.Register)
		// POST /auth/login - 密码登录
		authGroup.POST("/login", rt.handlers.Auth.Login)
		// POST /auth/refresh - 用 Refresh Token 换新的 Access Token
		authGroup.POST("/refresh", rt.handlers.Auth.RefreshToken)
	}
}

// RegisterAuthRoutes 注册需要认证的认证路由
func (rt *Router) RegisterAuthRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		// POST /auth/logout - 登出当前会话
		authGroup.POST("/logout", rt.handlers.Auth.Logout)
		// POST /auth/changePassword - 修改密码，踢掉其他设备
		authGroup.POST("/changePassword", rt.handlers.Auth.ChangePassword)
	}
}
