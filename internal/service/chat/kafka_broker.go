// Package chat 实现实时会话、在线状态与消息扇出子系统
// kafka_broker.go
// 核心职责：Kafka 模式的入站帧代理
// 入站帧先写入 Kafka 主题，本进程的单一消费循环再读出调度。
// 单分区主题下房间内顺序与 Channel 模式一致
package chat

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	myconfig "nexchat_server/internal/config"
	"nexchat_server/pkg/errorx"
)

// KafkaBroker 基于 Kafka 的代理实现
type KafkaBroker struct {
	client     *KafkaClient
	dispatcher *Dispatcher
	done       chan struct{}
}

// NewKafkaBroker 创建 Kafka 模式代理
func NewKafkaBroker(client *KafkaClient, dispatcher *Dispatcher) *KafkaBroker {
	return &KafkaBroker{
		client:     client,
		dispatcher: dispatcher,
		done:       make(chan struct{}),
	}
}

// Publish 把入站帧写入 Kafka 主题
// 固定分区键保证顺序（主题按配置的分区号路由）
func (b *KafkaBroker) Publish(ctx context.Context, envelope []byte) error {
	key := []byte(strconv.Itoa(myconfig.GetConfig().KafkaConfig.Partition))
	if err := b.client.SendMessage(ctx, key, envelope); err != nil {
		return errorx.Wrap(err, errorx.CodeServerBusy, "kafka publish failed")
	}
	return nil
}

// Start 消费循环：从 Kafka 读取入站帧并顺序调度
func (b *KafkaBroker) Start() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("kafka broker panic: %v", r))
		}
	}()

	ctx := context.Background()
	for {
		select {
		case <-b.done:
			return
		default:
		}

		kafkaMessage, err := b.client.Consumer.ReadMessage(ctx)
		if err != nil {
			select {
			case <-b.done:
				return
			default:
			}
			zap.L().Error("kafka read failed", zap.Error(err))
			continue
		}
		b.dispatcher.HandleEnvelope(kafkaMessage.Value)
	}
}

// Close 停止消费循环
func (b *KafkaBroker) Close() {
	close(b.done)
	zap.L().Info("kafka broker closed")
}

var _ MessageBroker = (*KafkaBroker)(nil)
