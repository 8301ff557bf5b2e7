// Package user 提供用户资料与在线状态的业务逻辑
package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/dto/respond"
	"nexchat_server/internal/service/cache"
	"nexchat_server/internal/service/chat"
	"nexchat_server/pkg/enum/presence_status_enum"
	"nexchat_server/pkg/errorx"
)

// Service 用户服务实现
type Service struct {
	repos      *repository.Repositories
	cacheSvc   *cache.Service
	chatServer *chat.ChatServer
}

// NewUserService 创建用户服务实例
func NewUserService(repos *repository.Repositories, cacheSvc *cache.Service, chatServer *chat.ChatServer) *Service {
	return &Service{repos: repos, cacheSvc: cacheSvc, chatServer: chatServer}
}

// GetUserInfo 获取用户资料，走读穿缓存
func (s *Service) GetUserInfo(ctx context.Context, uuid string) (*respond.GetUserInfoRespond, error) {
	snap, err := s.cacheSvc.GetUser(ctx, uuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		zap.L().Error("get user failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.GetUserInfoRespond{
		Uuid:      snap.Uuid,
		Nickname:  snap.Nickname,
		Email:     snap.Email,
		Avatar:    snap.Avatar,
		Signature: snap.Signature,
		Status:    snap.Status,
	}, nil
}

// UpdateUserInfo 更新用户资料
// 先落库，成功后写穿快照，读侧立即看到新资料
func (s *Service) UpdateUserInfo(ctx context.Context, uuid string, req request.UpdateUserInfoRequest) error {
	user, err := s.repos.User.FindByUuid(uuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		zap.L().Error("update user lookup failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	if req.Nickname != "" {
		user.Nickname = req.Nickname
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Signature != "" {
		user.Signature = req.Signature
	}
	if err := s.repos.User.UpdateUserInfo(user); err != nil {
		zap.L().Error("update user failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	s.cacheSvc.PutUser(ctx, user)
	return nil
}

// UpdateStatus 手动切换在线状态（away 等）
// 落库成功后作废快照并广播 user:status
func (s *Service) UpdateStatus(ctx context.Context, uuid string, req request.UpdateStatusRequest) error {
	if !presence_status_enum.Valid(req.Status) {
		return errorx.New(errorx.CodeInvalidParam, "无效的状态值")
	}

	if err := s.repos.User.UpdateStatus(uuid, req.Status, time.Now()); err != nil {
		zap.L().Error("update status failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	s.cacheSvc.InvalidateUser(ctx, uuid)
	s.chatServer.BroadcastUserStatus(uuid, req.Status)
	return nil
}
