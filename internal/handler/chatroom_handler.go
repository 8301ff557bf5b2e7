// Package handler 提供 HTTP 请求处理器
// 本文件处理聊天（房间）管理相关的 API 请求
package handler

import (
	"github.com/gin-gonic/gin"

	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/service"
	"nexchat_server/pkg/errorx"
)

// ChatRoomHandler 聊天管理请求处理器
type ChatRoomHandler struct {
	chatRoomSvc service.ChatRoomService
}

// NewChatRoomHandler 创建聊天管理处理器实例
func NewChatRoomHandler(chatRoomSvc service.ChatRoomService) *ChatRoomHandler {
	return &ChatRoomHandler{chatRoomSvc: chatRoomSvc}
}

// CreateChat 创建聊天
// POST /chat/create
func (h *ChatRoomHandler) CreateChat(c *gin.Context) {
	var req request.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.chatRoomSvc.CreateChat(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// JoinChat 加入聊天
// POST /chat/:uuid/join
func (h *ChatRoomHandler) JoinChat(c *gin.Context) {
	chatUuid := c.Param("uuid")
	if chatUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	if err := h.chatRoomSvc.JoinChat(c.Request.Context(), chatUuid, c.GetString("user_id")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// LeaveChat 退出聊天
// POST /chat/:uuid/leave
func (h *ChatRoomHandler) LeaveChat(c *gin.Context) {
	chatUuid := c.Param("uuid")
	if chatUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	if err := h.chatRoomSvc.LeaveChat(c.Request.Context(), chatUuid, c.GetString("user_id")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// GetChatInfo 获取聊天信息
// GET /chat/:uuid
func (h *ChatRoomHandler) GetChatInfo(c *gin.Context) {
	chatUuid := c.Param("uuid")
	if chatUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	data, err := h.chatRoomSvc.GetChatInfo(c.Request.Context(), chatUuid, c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetMembers 获取成员列表
// GET /chat/:uuid/members
func (h *ChatRoomHandler) GetMembers(c *gin.Context) {
	chatUuid := c.Param("uuid")
	if chatUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	data, err := h.chatRoomSvc.GetMembers(c.Request.Context(), chatUuid, c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
