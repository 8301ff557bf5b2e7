// Package repository 提供数据访问层的具体实现
// 本文件实现 SessionRepository 接口，处理登录会话相关的数据库操作
package repository

import (
	"time"

	"nexchat_server/internal/model"
	"nexchat_server/pkg/enum/session_status_enum"

	"gorm.io/gorm"
)

// sessionRepository SessionRepository 接口的实现
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建 SessionRepository 实例
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// FindByToken 根据令牌查找有效会话
// 已作废会话等同于不存在
func (r *sessionRepository) FindByToken(token string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("token = ? AND status = ?", token, session_status_enum.VALID).First(&session).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 token=%s", token)
	}
	return &session, nil
}

// Create 创建会话
func (r *sessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return wrapDBError(err, "创建会话")
	}
	return nil
}

// UpdateLastActive 写回最近活跃时间
// 调用方负责节流，这里只做落库
func (r *sessionRepository) UpdateLastActive(token string, at time.Time) error {
	if err := r.db.Model(&model.Session{}).Where("token = ?", token).
		Update("last_active_at", at).Error; err != nil {
		return wrapDBErrorf(err, "更新会话活跃时间 token=%s", token)
	}
	return nil
}

// InvalidateByToken 作废单个会话
// 对已作废的会话重复执行是幂等的
func (r *sessionRepository) InvalidateByToken(token string) error {
	if err := r.db.Model(&model.Session{}).Where("token = ?", token).
		Update("status", session_status_enum.INVALIDATED).Error; err != nil {
		return wrapDBErrorf(err, "作废会话 token=%s", token)
	}
	return nil
}

// InvalidateByUserUuid 作废用户全部会话
// excludeToken 非空时保留该会话（改密场景下保留当前登录）
func (r *sessionRepository) InvalidateByUserUuid(userUuid string, excludeToken string) error {
	q := r.db.Model(&model.Session{}).Where("user_uuid = ?", userUuid)
	if excludeToken != "" {
		q = q.Where("token <> ?", excludeToken)
	}
	if err := q.Update("status", session_status_enum.INVALIDATED).Error; err != nil {
		return wrapDBErrorf(err, "作废用户会话 user_uuid=%s", userUuid)
	}
	return nil
}
