// Package handler 提供 HTTP 请求处理器
// 本文件处理用户资料与在线状态相关的 API 请求
package handler

import (
	"github.com/gin-gonic/gin"

	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/service"
	"nexchat_server/pkg/errorx"
)

// UserHandler 用户请求处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetUserInfo 获取用户资料
// GET /user/:uuid
func (h *UserHandler) GetUserInfo(c *gin.Context) {
	uuid := c.Param("uuid")
	if uuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	data, err := h.userSvc.GetUserInfo(c.Request.Context(), uuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetMyInfo 获取当前登录用户的资料
// GET /user/me
func (h *UserHandler) GetMyInfo(c *gin.Context) {
	data, err := h.userSvc.GetUserInfo(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateUserInfo 更新当前用户资料
// POST /user/update
func (h *UserHandler) UpdateUserInfo(c *gin.Context) {
	var req request.UpdateUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.userSvc.UpdateUserInfo(c.Request.Context(), c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// UpdateStatus 手动切换在线状态
// POST /user/status
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req request.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.userSvc.UpdateStatus(c.Request.Context(), c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
