// Package message 提供历史消息与已读标记的业务逻辑
// 实时发送走 WebSocket 调度器，这里只处理 REST 侧的查询与兜底写入
package message

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/dto/request"
	"nexchat_server/internal/dto/respond"
	"nexchat_server/internal/model"
	"nexchat_server/pkg/constants"
	"nexchat_server/pkg/enum/chat/chat_role_enum"
	"nexchat_server/pkg/errorx"
)

// Service 消息服务实现
type Service struct {
	repos *repository.Repositories
}

// NewMessageService 创建消息服务实例
func NewMessageService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// GetMessageList 分页拉取历史消息，仅成员可见
// 墓碑消息照常返回（内容已清空，deleted 置位），前端自行渲染占位
func (s *Service) GetMessageList(ctx context.Context, userUuid string, req request.GetMessageListRequest) ([]respond.GetMessageListRespond, error) {
	if !s.isMember(req.ChatUuid, userUuid) {
		return nil, errorx.ErrForbidden
	}

	limit := req.Limit
	if limit <= 0 || limit > constants.MESSAGE_PAGE_SIZE {
		limit = constants.MESSAGE_PAGE_SIZE
	}
	messages, err := s.repos.Message.FindByChatUuid(req.ChatUuid, req.BeforeUuid, limit)
	if err != nil {
		zap.L().Error("message history failed", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	rsp := make([]respond.GetMessageListRespond, 0, len(messages))
	for _, m := range messages {
		rsp = append(rsp, respond.GetMessageListRespond{
			Uuid:        m.Uuid,
			ChatUuid:    m.ChatUuid,
			SendId:      m.SendId,
			Type:        m.Type,
			Content:     m.Content,
			Url:         m.Url,
			FileName:    m.FileName,
			FileType:    m.FileType,
			FileSize:    m.FileSize,
			ReplyToUuid: m.ReplyToUuid,
			Edited:      m.Edited,
			Deleted:     m.Deleted,
			CreatedAt:   m.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rsp, nil
}

// MarkRead REST 已读标记（WebSocket 不可用时的兜底，幂等）
func (s *Service) MarkRead(ctx context.Context, userUuid string, req request.MarkReadRequest) error {
	if !s.isMember(req.ChatUuid, userUuid) {
		return errorx.ErrForbidden
	}

	if err := s.repos.Message.MarkRead(&model.MessageRead{
		MessageUuid: req.MessageUuid,
		ChatUuid:    req.ChatUuid,
		UserUuid:    userUuid,
		ReadAt:      time.Now(),
	}); err != nil {
		zap.L().Error("mark read failed", zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}

// DeleteMessage 墓碑删除
// 仅发送者本人或聊天管理员可删；行保留，内容清空
func (s *Service) DeleteMessage(ctx context.Context, userUuid string, messageUuid int64) error {
	m, err := s.repos.Message.FindByUuid(messageUuid)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.New(errorx.CodeNotFound, "消息不存在")
		}
		zap.L().Error("delete message lookup failed", zap.Error(err))
		return errorx.ErrServerBusy
	}

	if m.SendId != userUuid {
		member, err := s.repos.ChatMember.FindMember(m.ChatUuid, userUuid)
		if err != nil || member.Role != chat_role_enum.Admin {
			return errorx.ErrForbidden
		}
	}

	if err := s.repos.Message.Tombstone(messageUuid); err != nil {
		zap.L().Error("tombstone failed", zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}

func (s *Service) isMember(chatUuid, userUuid string) bool {
	_, err := s.repos.ChatMember.FindMember(chatUuid, userUuid)
	if err != nil {
		if !errorx.IsNotFound(err) {
			zap.L().Error("membership lookup failed", zap.Error(err))
		}
		return false
	}
	return true
}
