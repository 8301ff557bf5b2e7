// Package chat 实现实时会话、在线状态与消息扇出子系统
// fanout.go
// 核心职责：按作用域（房间 / 个人通道 / 全体）投递事件
// 至多一次、尽力而为：投递从不阻塞，慢消费者由连接层丢弃
package chat

import (
	"go.uber.org/zap"
)

// FanoutEngine 事件扇出引擎
// 自身无状态，所有路由信息来自连接注册表的快照
type FanoutEngine struct {
	registry *ConnRegistry
}

// NewFanoutEngine 创建扇出引擎
func NewFanoutEngine(registry *ConnRegistry) *FanoutEngine {
	return &FanoutEngine{registry: registry}
}

// BroadcastToRoom 向房间内所有订阅连接投递事件
// excludeConnId 非空时跳过该连接（通话信令等不回显场景用）
func (f *FanoutEngine) BroadcastToRoom(chatUuid string, event string, data any, excludeConnId string) {
	frame, err := MarshalFrame(event, data)
	if err != nil {
		zap.L().Error("room frame marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	for _, conn := range f.registry.RoomConns(chatUuid) {
		if conn.ConnId == excludeConnId {
			continue
		}
		conn.SendFrame(frame)
	}
}

// SendToUser 向用户个人通道投递事件（该用户的全部连接）
// 用户不在线时静默丢弃，返回是否至少投递给了一条连接
func (f *FanoutEngine) SendToUser(userUuid string, event string, data any) bool {
	conns := f.registry.UserConns(userUuid)
	if len(conns) == 0 {
		return false
	}
	frame, err := MarshalFrame(event, data)
	if err != nil {
		zap.L().Error("user frame marshal failed", zap.String("event", event), zap.Error(err))
		return false
	}
	for _, conn := range conns {
		conn.SendFrame(frame)
	}
	return true
}

// BroadcastAll 向全体在线连接投递事件
// excludeUserUuid 非空时跳过该用户自己的连接（在线状态广播用）
func (f *FanoutEngine) BroadcastAll(event string, data any, excludeUserUuid string) {
	frame, err := MarshalFrame(event, data)
	if err != nil {
		zap.L().Error("broadcast frame marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	for _, conn := range f.registry.AllConns() {
		if conn.UserUuid == excludeUserUuid {
			continue
		}
		conn.SendFrame(frame)
	}
}
