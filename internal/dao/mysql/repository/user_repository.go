// Package repository 提供数据访问层的具体实现
// 本文件实现 UserRepository 接口
package repository

import (
	"time"

	"nexchat_server/internal/model"

	"gorm.io/gorm"
)

// userRepository UserRepository 接口的实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 根据 UUID 查找用户
func (r *userRepository) FindByUuid(uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByEmail 根据邮箱查找用户
func (r *userRepository) FindByEmail(email string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 email=%s", email)
	}
	return &user, nil
}

// Create 创建新用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// UpdateUserInfo 更新用户资料
func (r *userRepository) UpdateUserInfo(user *model.UserInfo) error {
	if err := r.db.Model(&model.UserInfo{}).Where("uuid = ?", user.Uuid).Updates(map[string]interface{}{
		"nickname":  user.Nickname,
		"avatar":    user.Avatar,
		"signature": user.Signature,
	}).Error; err != nil {
		return wrapDBErrorf(err, "更新用户资料 uuid=%s", user.Uuid)
	}
	return nil
}

// UpdatePassword 更新密码
// 经由 Save 触发模型的 BeforeSave Hook 完成 bcrypt 加密
func (r *userRepository) UpdatePassword(uuid, rawPassword string) error {
	var user model.UserInfo
	if err := r.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	user.RawPassword = rawPassword
	if err := r.db.Save(&user).Error; err != nil {
		return wrapDBErrorf(err, "更新密码 uuid=%s", uuid)
	}
	return nil
}

// UpdateStatus 写入在线状态与对应时间戳
// status 为 online 时写 last_online_at，否则写 last_offline_at
func (r *userRepository) UpdateStatus(uuid, status string, at time.Time) error {
	updates := map[string]interface{}{"status": status}
	if status == "online" {
		updates["last_online_at"] = at
	} else {
		updates["last_offline_at"] = at
	}
	if err := r.db.Model(&model.UserInfo{}).Where("uuid = ?", uuid).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新用户状态 uuid=%s status=%s", uuid, status)
	}
	return nil
}
