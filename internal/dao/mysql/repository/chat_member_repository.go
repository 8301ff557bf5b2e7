// Package repository 提供数据访问层的具体实现
// 本文件实现 ChatMemberRepository 接口
package repository

import (
	"nexchat_server/internal/model"

	"gorm.io/gorm"
)

// chatMemberRepository ChatMemberRepository 接口的实现
type chatMemberRepository struct {
	db *gorm.DB
}

// NewChatMemberRepository 创建 ChatMemberRepository 实例
func NewChatMemberRepository(db *gorm.DB) ChatMemberRepository {
	return &chatMemberRepository{db: db}
}

// FindByChatUuid 查找聊天的全部成员
func (r *chatMemberRepository) FindByChatUuid(chatUuid string) ([]model.ChatMember, error) {
	var members []model.ChatMember
	if err := r.db.Where("chat_uuid = ?", chatUuid).Find(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询聊天成员 chat_uuid=%s", chatUuid)
	}
	return members, nil
}

// FindByUserUuid 查找用户加入的全部聊天
func (r *chatMemberRepository) FindByUserUuid(userUuid string) ([]model.ChatMember, error) {
	var members []model.ChatMember
	if err := r.db.Where("user_uuid = ?", userUuid).Find(&members).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户聊天列表 user_uuid=%s", userUuid)
	}
	return members, nil
}

// FindMember 查找某用户在某聊天中的成员记录
// 不存在即非成员，返回 CodeNotFound
func (r *chatMemberRepository) FindMember(chatUuid, userUuid string) (*model.ChatMember, error) {
	var member model.ChatMember
	if err := r.db.Where("chat_uuid = ? AND user_uuid = ?", chatUuid, userUuid).First(&member).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询成员 chat_uuid=%s user_uuid=%s", chatUuid, userUuid)
	}
	return &member, nil
}

// Create 添加成员
func (r *chatMemberRepository) Create(member *model.ChatMember) error {
	if err := r.db.Create(member).Error; err != nil {
		return wrapDBError(err, "添加聊天成员")
	}
	return nil
}

// Delete 移除成员
func (r *chatMemberRepository) Delete(chatUuid, userUuid string) error {
	if err := r.db.Where("chat_uuid = ? AND user_uuid = ?", chatUuid, userUuid).
		Delete(&model.ChatMember{}).Error; err != nil {
		return wrapDBErrorf(err, "移除聊天成员 chat_uuid=%s user_uuid=%s", chatUuid, userUuid)
	}
	return nil
}
