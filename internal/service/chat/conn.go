// Package chat 实现实时会话、在线状态与消息扇出子系统
// conn.go
// 核心职责：WebSocket 连接封装
// 1. 读协程：收前端帧 -> 封装信封 -> 交给 Broker
// 2. 写协程：从 Send 通道取帧 -> 写回前端
// 3. 任何一侧出错都走统一的断开流程
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nexchat_server/pkg/constants"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	// 前后端不同源部署，放行所有 Origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UserConn 一条已认证的 WebSocket 连接
type UserConn struct {
	ConnId       string // 连接 ID（uuid），同一用户多连接时区分用
	UserUuid     string
	SessionToken string

	Conn *websocket.Conn
	// Send 出站帧缓冲，写满说明消费过慢，连接会被断开
	Send chan []byte

	// mu 保护 closed，避免扇出协程向已关闭的 Send 写入
	mu     sync.Mutex
	closed bool
	// disconnectOnce 保证读写协程与慢消费者丢弃触发的断开只执行一次
	disconnectOnce sync.Once

	server *ChatServer
}

// inboundEnvelope 入站帧信封
// 读协程把前端帧连同来源连接一起交给 Broker，
// 调度循环凭 ConnId 找回连接（可能已断开）
type inboundEnvelope struct {
	ConnId   string          `json:"conn_id"`
	UserUuid string          `json:"user_uuid"`
	Frame    json.RawMessage `json:"frame"`
}

// newUserConn 封装升级完成的 WebSocket 连接
func newUserConn(connId, userUuid, sessionToken string, conn *websocket.Conn, server *ChatServer) *UserConn {
	return &UserConn{
		ConnId:       connId,
		UserUuid:     userUuid,
		SessionToken: sessionToken,
		Conn:         conn,
		Send:         make(chan []byte, constants.CHANNEL_SIZE),
		server:       server,
	}
}

// Read 读协程：从 WebSocket 读帧并发布给 Broker
// 读出错（含对端异常断开）即触发断开流程
func (c *UserConn) Read() {
	defer c.server.handleDisconnect(c)

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read error", zap.String("conn", c.ConnId), zap.Error(err))
			}
			return
		}

		// 任何入站帧都算会话活跃（回写已节流）
		c.server.cacheSvc.TouchSession(context.Background(), c.SessionToken)

		envelope, err := json.Marshal(&inboundEnvelope{
			ConnId:   c.ConnId,
			UserUuid: c.UserUuid,
			Frame:    frame,
		})
		if err != nil {
			zap.L().Error("inbound envelope marshal failed", zap.Error(err))
			continue
		}
		if err := c.server.Broker.Publish(context.Background(), envelope); err != nil {
			zap.L().Error("inbound publish failed", zap.Error(err))
			c.SendError("服务器繁忙，请稍后重试")
		}
	}
}

// Write 写协程：从 Send 通道取帧写回 WebSocket
// Send 关闭或写出错时退出，连接由断开流程回收
func (c *UserConn) Write() {
	for frame := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			zap.L().Error("ws write error", zap.String("conn", c.ConnId), zap.Error(err))
			c.server.handleDisconnect(c)
			return
		}
	}
}

// SendFrame 非阻塞投递出站帧
// 缓冲满视为慢消费者：丢弃连接而不是阻塞扇出循环
func (c *UserConn) SendFrame(frame []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.Send <- frame:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		zap.L().Warn("slow consumer, dropping connection",
			zap.String("conn", c.ConnId), zap.String("user", c.UserUuid))
		go c.server.handleDisconnect(c)
	}
}

// SendError 向本连接发送 error 事件
func (c *UserConn) SendError(message string) {
	frame, err := MarshalFrame(EventError, &ErrorData{Message: message})
	if err != nil {
		zap.L().Error("error frame marshal failed", zap.Error(err))
		return
	}
	c.SendFrame(frame)
}

// close 关闭底层连接和 Send 通道，多次调用只生效一次
func (c *UserConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if err := c.Conn.Close(); err != nil {
		zap.L().Debug("ws close", zap.Error(err))
	}
	close(c.Send)
}
