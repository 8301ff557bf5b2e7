// Package repository 提供数据访问层的具体实现
// 本文件实现 MessageRepository 接口
package repository

import (
	"nexchat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// messageRepository MessageRepository 接口的实现
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByUuid 根据雪花 ID 查找消息
func (r *messageRepository) FindByUuid(uuid int64) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("uuid = ?", uuid).First(&message).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 uuid=%d", uuid)
	}
	return &message, nil
}

// FindByChatUuid 分页查找聊天的历史消息
// beforeUuid 非 0 时只取该消息之前的记录，按雪花 ID 倒序
// 墓碑消息照常返回，由展示层处理
func (r *messageRepository) FindByChatUuid(chatUuid string, beforeUuid int64, limit int) ([]model.Message, error) {
	var messages []model.Message
	q := r.db.Where("chat_uuid = ?", chatUuid)
	if beforeUuid > 0 {
		q = q.Where("uuid < ?", beforeUuid)
	}
	if err := q.Order("uuid DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询历史消息 chat_uuid=%s", chatUuid)
	}
	return messages, nil
}

// Tombstone 墓碑删除
// 清空内容、置删除标志，行保留以维持已读回执和回复引用
func (r *messageRepository) Tombstone(uuid int64) error {
	if err := r.db.Model(&model.Message{}).Where("uuid = ?", uuid).Updates(map[string]interface{}{
		"content": "",
		"url":     "",
		"deleted": true,
	}).Error; err != nil {
		return wrapDBErrorf(err, "删除消息 uuid=%d", uuid)
	}
	return nil
}

// MarkRead 写入已读标记
// (消息, 用户) 唯一索引冲突时忽略，重复标记不报错
func (r *messageRepository) MarkRead(read *model.MessageRead) error {
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(read).Error; err != nil {
		return wrapDBErrorf(err, "标记已读 message_uuid=%d user_uuid=%s", read.MessageUuid, read.UserUuid)
	}
	return nil
}
