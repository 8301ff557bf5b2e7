// Package handler 提供 HTTP 请求处理器
// 本文件处理通知相关的 API 请求
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"nexchat_server/internal/dto/respond"
	"nexchat_server/internal/service"
	"nexchat_server/pkg/errorx"
)

// NotificationHandler 通知请求处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建通知处理器实例
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List 分页拉取通知
// GET /notification/list?limit=20&offset=0
func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.notificationSvc.List(c.Request.Context(), c.GetString("user_id"), limit, offset)
	if err != nil {
		HandleError(c, err)
		return
	}

	rsp := make([]respond.NotificationRespond, 0, len(list))
	for _, n := range list {
		rsp = append(rsp, respond.NotificationRespond{
			Uuid:      n.Uuid,
			SenderId:  n.SenderId,
			Type:      n.Type,
			Title:     n.Title,
			Content:   n.Content,
			Payload:   n.Payload,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	HandleSuccess(c, rsp)
}

// UnreadCount 未读数
// GET /notification/unreadCount
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationSvc.UnreadCount(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"count": count})
}

// MarkRead 标记单条已读
// POST /notification/:uuid/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	uuid, err := strconv.ParseInt(c.Param("uuid"), 10, 64)
	if err != nil {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	if err := h.notificationSvc.MarkRead(c.Request.Context(), uuid, c.GetString("user_id")); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
