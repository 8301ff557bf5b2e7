// Package chat 实现实时会话、在线状态与消息扇出子系统
// broker.go
// 核心职责：入站帧代理
// 所有入站事件经由单一消费循环进入调度器，保证同一房间内消息的相对顺序
package chat

import (
	"context"

	"go.uber.org/zap"

	"nexchat_server/pkg/constants"
	"nexchat_server/pkg/errorx"
)

// MessageBroker 入站帧代理接口
// 两种实现：ChannelBroker（单机，默认）、KafkaBroker（走消息队列）
type MessageBroker interface {
	// Publish 发布入站帧信封
	Publish(ctx context.Context, envelope []byte) error
	// Start 启动消费循环（阻塞，调用方决定是否开协程）
	Start()
	// Close 关闭代理资源
	Close()
}

// ChannelBroker 基于进程内缓冲通道的代理实现
type ChannelBroker struct {
	transmit   chan []byte
	dispatcher *Dispatcher
	done       chan struct{}
}

// NewChannelBroker 创建 Channel 模式代理
func NewChannelBroker(dispatcher *Dispatcher) *ChannelBroker {
	return &ChannelBroker{
		transmit:   make(chan []byte, constants.CHANNEL_SIZE),
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}
}

// Publish 发布入站帧，通道满时拒绝而不是阻塞读协程
func (b *ChannelBroker) Publish(ctx context.Context, envelope []byte) error {
	select {
	case b.transmit <- envelope:
		return nil
	default:
		return errorx.New(errorx.CodeServerBusy, "转发通道已满")
	}
}

// Start 消费循环：单协程顺序调度，房间内顺序由此保证
func (b *ChannelBroker) Start() {
	for {
		select {
		case envelope, ok := <-b.transmit:
			if !ok {
				return
			}
			b.dispatcher.HandleEnvelope(envelope)
		case <-b.done:
			return
		}
	}
}

// Close 停止消费循环
func (b *ChannelBroker) Close() {
	close(b.done)
	zap.L().Info("channel broker closed")
}

var _ MessageBroker = (*ChannelBroker)(nil)
