// Package handler 提供 HTTP 请求处理器
// 本文件处理历史消息相关的 API 请求
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/service"
	"nexchat_server/pkg/errorx"
)

// MessageHandler 消息请求处理器
type MessageHandler struct {
	messageSvc service.MessageService
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(messageSvc service.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// GetMessageList 分页拉取历史消息
// POST /message/list
func (h *MessageHandler) GetMessageList(c *gin.Context) {
	var req request.GetMessageListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.messageSvc.GetMessageList(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// MarkRead REST 已读标记兜底
// POST /message/markRead
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req request.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.messageSvc.MarkRead(c.Request.Context(), c.GetString("user_id"), req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// DeleteMessage 墓碑删除
// POST /message/:uuid/delete
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageUuid, err := strconv.ParseInt(c.Param("uuid"), 10, 64)
	if err != nil {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	if err := h.messageSvc.DeleteMessage(c.Request.Context(), c.GetString("user_id"), messageUuid); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
