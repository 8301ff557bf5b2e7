// Package repository 提供数据访问层的具体实现
// 本文件实现 ChatRepository 接口
package repository

import (
	"time"

	"nexchat_server/internal/model"

	"gorm.io/gorm"
)

// chatRepository ChatRepository 接口的实现
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建 ChatRepository 实例
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// FindByUuid 根据 UUID 查找聊天
func (r *chatRepository) FindByUuid(uuid string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.Where("uuid = ?", uuid).First(&chat).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询聊天 uuid=%s", uuid)
	}
	return &chat, nil
}

// Create 创建聊天
func (r *chatRepository) Create(chat *model.Chat) error {
	if err := r.db.Create(chat).Error; err != nil {
		return wrapDBError(err, "创建聊天")
	}
	return nil
}

// UpdateLastMessage 更新最新消息指针
func (r *chatRepository) UpdateLastMessage(uuid, preview string, at time.Time) error {
	if err := r.db.Model(&model.Chat{}).Where("uuid = ?", uuid).Updates(map[string]interface{}{
		"last_message":    preview,
		"last_message_at": at,
	}).Error; err != nil {
		return wrapDBErrorf(err, "更新聊天最新消息 uuid=%s", uuid)
	}
	return nil
}
