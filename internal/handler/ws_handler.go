// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接请求
package handler

import (
	"github.com/gin-gonic/gin"

	"nexchat_server/internal/service/chat"
)

// WsHandler WebSocket 请求处理器
// 握手认证在 ChatServer 内完成（令牌走查询参数，不经过 JWT 中间件）
type WsHandler struct {
	chatServer *chat.ChatServer
}

// NewWsHandler 创建 WebSocket 处理器实例
func NewWsHandler(chatServer *chat.ChatServer) *WsHandler {
	return &WsHandler{chatServer: chatServer}
}

// Connect WebSocket 连接入口
// GET /wss?token=<access_token>
func (h *WsHandler) Connect(c *gin.Context) {
	h.chatServer.HandleConnection(c)
}
