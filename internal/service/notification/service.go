// Package notification 实现通知的持久化投递
// 先落库后推送：落库成功即算成功，推送只是锦上添花，
// 接收者离线时通知留在数据库等待拉取
package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/model"
	"nexchat_server/internal/service/chat"
	"nexchat_server/pkg/util/snowflake"
)

// Pusher 实时推送接口，由扇出引擎实现
// 返回值表示是否至少投递给了一条存活连接
type Pusher interface {
	SendToUser(userUuid string, event string, data any) bool
}

// Service 通知投递服务
type Service struct {
	repos  *repository.Repositories
	pusher Pusher
}

// NewService 创建通知服务实例
func NewService(repos *repository.Repositories, pusher Pusher) *Service {
	return &Service{repos: repos, pusher: pusher}
}

// Notify 创建并投递一条通知
// 1. 持久化（成功与否决定本调用的成败）
// 2. 尽力推送 notification:new 到接收者个人通道
// 并发调用互不影响，不做去重，调用方自行保证同一逻辑事件只通知一次
func (s *Service) Notify(ctx context.Context, recipientId, senderId, kind, title, content, payload string) (int64, error) {
	n := model.Notification{
		Uuid:        snowflake.GenerateID(),
		RecipientId: recipientId,
		SenderId:    senderId,
		Type:        kind,
		Title:       title,
		Content:     content,
		Payload:     payload,
	}
	if err := s.repos.Notification.Create(&n); err != nil {
		return 0, err
	}

	// 推送失败或离线不回滚也不报错
	delivered := s.pusher.SendToUser(recipientId, chat.EventNotificationNew, &chat.NotificationNewData{
		Uuid:      n.Uuid,
		SenderId:  n.SenderId,
		Type:      n.Type,
		Title:     n.Title,
		Content:   n.Content,
		Payload:   n.Payload,
		CreatedAt: time.Now().Format("2006-01-02 15:04:05"),
	})
	if !delivered {
		zap.L().Debug("notification recipient offline, stored only",
			zap.String("recipient", recipientId), zap.Int64("uuid", n.Uuid))
	}
	return n.Uuid, nil
}

// List 分页拉取通知
func (s *Service) List(ctx context.Context, recipientId string, limit, offset int) ([]model.Notification, error) {
	return s.repos.Notification.FindByRecipient(recipientId, limit, offset)
}

// UnreadCount 未读数
func (s *Service) UnreadCount(ctx context.Context, recipientId string) (int64, error) {
	return s.repos.Notification.CountUnread(recipientId)
}

// MarkRead 标记单条已读，归属校验在 Repository 的 where 条件里
func (s *Service) MarkRead(ctx context.Context, uuid int64, recipientId string) error {
	return s.repos.Notification.MarkRead(uuid, recipientId)
}
