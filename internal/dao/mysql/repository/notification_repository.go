// Package repository 提供数据访问层的具体实现
// 本文件实现 NotificationRepository 接口
package repository

import (
	"nexchat_server/internal/model"

	"gorm.io/gorm"
)

// notificationRepository NotificationRepository 接口的实现
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建 NotificationRepository 实例
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create 创建通知
func (r *notificationRepository) Create(notification *model.Notification) error {
	if err := r.db.Create(notification).Error; err != nil {
		return wrapDBError(err, "创建通知")
	}
	return nil
}

// FindByRecipient 分页查找接收者的通知，新的在前
func (r *notificationRepository) FindByRecipient(recipientId string, limit, offset int) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := r.db.Where("recipient_id = ?", recipientId).
		Order("uuid DESC").Limit(limit).Offset(offset).
		Find(&notifications).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询通知列表 recipient_id=%s", recipientId)
	}
	return notifications, nil
}

// CountUnread 统计未读数
func (r *notificationRepository) CountUnread(recipientId string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientId, false).
		Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计未读通知 recipient_id=%s", recipientId)
	}
	return count, nil
}

// MarkRead 标记单条已读
// 带 recipient 条件，防止越权标记他人通知
func (r *notificationRepository) MarkRead(uuid int64, recipientId string) error {
	if err := r.db.Model(&model.Notification{}).
		Where("uuid = ? AND recipient_id = ?", uuid, recipientId).
		Update("is_read", true).Error; err != nil {
		return wrapDBErrorf(err, "标记通知已读 uuid=%d", uuid)
	}
	return nil
}
