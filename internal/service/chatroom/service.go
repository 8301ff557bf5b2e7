// Package chatroom 提供聊天（房间）管理的业务逻辑
// 成员名单以数据库为准，REST 侧的进出同时修正在线连接的房间订阅
package chatroom

import (
	"context"

	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/dto/respond"
	"nexchat_server/internal/model"
	"nexchat_server/internal/service/cache"
	"nexchat_server/internal/service/chat"
	"nexchat_server/pkg/enum/chat/chat_role_enum"
	"nexchat_server/pkg/errorx"
	"nexchat_server/pkg/util/random"
)

// Service 聊天管理服务实现
type Service struct {
	repos      *repository.Repositories
	cacheSvc   *cache.Service
	chatServer *chat.ChatServer
}

// NewChatRoomService 创建聊天管理服务实例
func NewChatRoomService(repos *repository.Repositories, cacheSvc *cache.Service, chatServer *chat.ChatServer) *Service {
	return &Service{repos: repos, cacheSvc: cacheSvc, chatServer: chatServer}
}

// CreateChat 创建聊天，创建者自动成为管理员
func (s *Service) CreateChat(ctx context.Context, ownerUuid string, req request.CreateChatRequest) (*respond.ChatInfoRespond, error) {
	c := model.Chat{
		Uuid:      "C" + random.GetNowAndLenRandomString(11),
		Name:      req.Name,
		Avatar:    req.Avatar,
		OwnerUuid: ownerUuid,
	}

	err := s.repos.Transaction(func(txRepos *repository.Repositories) error {
		if err := txRepos.Chat.Create(&c); err != nil {
			return err
		}
		return txRepos.ChatMember.Create(&model.ChatMember{
			ChatUuid: c.Uuid,
			UserUuid: ownerUuid,
			Role:     chat_role_enum.Admin,
		})
	})
	if err != nil {
		zap.L().Error("create chat failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	// 创建者的在线连接立即订阅新房间
	s.subscribeLiveConns(ownerUuid, c.Uuid)

	return &respond.ChatInfoRespond{
		Uuid:      c.Uuid,
		Name:      c.Name,
		Avatar:    c.Avatar,
		OwnerUuid: c.OwnerUuid,
	}, nil
}

// JoinChat 加入聊天，写入成员记录并订阅在线连接
func (s *Service) JoinChat(ctx context.Context, chatUuid, userUuid string) error {
	if _, err := s.repos.Chat.FindByUuid(chatUuid); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeNotFound, "聊天不存在")
		}
		zap.L().Error("join chat lookup failed", zap.Error(err))
		return errorx.ErrServerBusy
	}
	// 已是成员则幂等成功
	if _, err := s.repos.ChatMember.FindMember(chatUuid, userUuid); err == nil {
		return nil
	} else if !errorx.IsNotFound(err) {
		zap.L().Error("join chat member lookup failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	if err := s.repos.ChatMember.Create(&model.ChatMember{
		ChatUuid: chatUuid,
		UserUuid: userUuid,
		Role:     chat_role_enum.Member,
	}); err != nil {
		zap.L().Error("join chat failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	s.subscribeLiveConns(userUuid, chatUuid)
	return nil
}

// LeaveChat 退出聊天，删除成员记录并退订在线连接
func (s *Service) LeaveChat(ctx context.Context, chatUuid, userUuid string) error {
	if _, err := s.repos.ChatMember.FindMember(chatUuid, userUuid); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeForbidden, "你不是该聊天的成员")
		}
		zap.L().Error("leave chat member lookup failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	if err := s.repos.ChatMember.Delete(chatUuid, userUuid); err != nil {
		zap.L().Error("leave chat failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	for _, conn := range s.chatServer.Registry.UserConns(userUuid) {
		s.chatServer.Registry.LeaveRoom(conn, chatUuid)
	}
	return nil
}

// GetChatInfo 获取聊天信息，仅成员可见
func (s *Service) GetChatInfo(ctx context.Context, chatUuid, userUuid string) (*respond.ChatInfoRespond, error) {
	if _, err := s.repos.ChatMember.FindMember(chatUuid, userUuid); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrForbidden
		}
		zap.L().Error("chat info member lookup failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	c, err := s.repos.Chat.FindByUuid(chatUuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeNotFound, "聊天不存在")
		}
		zap.L().Error("chat info lookup failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	rsp := &respond.ChatInfoRespond{
		Uuid:        c.Uuid,
		Name:        c.Name,
		Avatar:      c.Avatar,
		OwnerUuid:   c.OwnerUuid,
		LastMessage: c.LastMessage,
	}
	if c.LastMessageAt.Valid {
		rsp.LastMessageAt = c.LastMessageAt.Time.Format("2006-01-02 15:04:05")
	}
	return rsp, nil
}

// GetMembers 获取成员列表，仅成员可见
// 昵称头像走缓存快照，在线状态以连接注册表为准
func (s *Service) GetMembers(ctx context.Context, chatUuid, userUuid string) ([]respond.ChatMemberRespond, error) {
	if _, err := s.repos.ChatMember.FindMember(chatUuid, userUuid); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.ErrForbidden
		}
		zap.L().Error("member list auth failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	members, err := s.repos.ChatMember.FindByChatUuid(chatUuid)
	if err != nil {
		zap.L().Error("member list failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	rsp := make([]respond.ChatMemberRespond, 0, len(members))
	for _, m := range members {
		entry := respond.ChatMemberRespond{
			UserUuid: m.UserUuid,
			Role:     m.Role,
		}
		if snap, err := s.cacheSvc.GetUser(ctx, m.UserUuid); err == nil {
			entry.Nickname = snap.Nickname
			entry.Avatar = snap.Avatar
			entry.Status = snap.Status
		}
		rsp = append(rsp, entry)
	}
	return rsp, nil
}

// subscribeLiveConns 让用户当前的全部在线连接订阅房间
func (s *Service) subscribeLiveConns(userUuid, chatUuid string) {
	for _, conn := range s.chatServer.Registry.UserConns(userUuid) {
		s.chatServer.Registry.JoinRoom(conn, chatUuid)
	}
}
