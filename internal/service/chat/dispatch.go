// Package chat 实现实时会话、在线状态与消息扇出子系统
// dispatch.go
// 核心职责：入站事件调度
// 1. 凭信封中的连接 ID 找回存活连接（可能已断开，直接丢弃）
// 2. 按事件类型分发：消息落库转发、已读标记、输入状态、房间进出、通话信令
// 3. 鉴权失败和落库失败只回错给发起方，不产生部分广播
package chat

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/model"
	"nexchat_server/internal/service/cache"
	"nexchat_server/pkg/errorx"
	"nexchat_server/pkg/util/snowflake"
)

// Dispatcher 入站事件调度器
// 由 Broker 的单一消费循环驱动，处理函数内无需再考虑同房间并发
type Dispatcher struct {
	registry *ConnRegistry
	fanout   *FanoutEngine
	repos    *repository.Repositories
	cacheSvc *cache.Service
}

// NewDispatcher 创建调度器
func NewDispatcher(registry *ConnRegistry, fanout *FanoutEngine, repos *repository.Repositories, cacheSvc *cache.Service) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		fanout:   fanout,
		repos:    repos,
		cacheSvc: cacheSvc,
	}
}

// HandleEnvelope 处理一条入站帧信封
func (d *Dispatcher) HandleEnvelope(envelope []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(envelope, &env); err != nil {
		zap.L().Error("inbound envelope unmarshal failed", zap.Error(err))
		return
	}

	// 帧在队列里排队期间连接可能已断开
	conn := d.registry.GetConn(env.ConnId)
	if conn == nil {
		zap.L().Debug("drop frame from disconnected conn", zap.String("conn", env.ConnId))
		return
	}

	var frame Frame
	if err := json.Unmarshal(env.Frame, &frame); err != nil {
		conn.SendError("无法解析的消息格式")
		return
	}

	switch frame.Event {
	case EventMessageSend:
		d.handleMessageSend(conn, frame.Data)
	case EventMessageRead:
		d.handleMessageRead(conn, frame.Data)
	case EventTypingStart:
		d.handleTyping(conn, frame.Data, true)
	case EventTypingStop:
		d.handleTyping(conn, frame.Data, false)
	case EventChatJoin:
		d.handleChatJoin(conn, frame.Data)
	case EventChatLeave:
		d.handleChatLeave(conn, frame.Data)
	case EventCallStart:
		d.relayCallSignal(conn, frame.Data, EventCallIncoming)
	case EventCallAnswer:
		d.relayCallSignal(conn, frame.Data, EventCallAccepted)
	case EventCallIceCandidate:
		d.relayCallSignal(conn, frame.Data, EventCallIceCandidate)
	case EventCallEnd:
		d.relayCallSignal(conn, frame.Data, EventCallEnded)
	case EventCallReject:
		d.relayCallSignal(conn, frame.Data, EventCallRejected)
	default:
		conn.SendError("未知的事件类型: " + frame.Event)
	}
}

// handleMessageSend 处理消息发送
// 权威成员鉴权 -> 落库（含发送者已读标记）-> 更新会话最新消息指针 -> 扇出
func (d *Dispatcher) handleMessageSend(conn *UserConn, data json.RawMessage) {
	var req MessageSendData
	if err := json.Unmarshal(data, &req); err != nil || req.ChatUuid == "" {
		conn.SendError("消息格式不正确")
		return
	}

	// 每次发送都回源数据库鉴权，成员名单以数据库为准
	if !d.isMember(req.ChatUuid, conn.UserUuid) {
		conn.SendError("你不是该聊天的成员")
		return
	}

	message := model.Message{
		Uuid:        snowflake.GenerateID(),
		ChatUuid:    req.ChatUuid,
		SendId:      conn.UserUuid,
		Type:        req.Type,
		Content:     req.Content,
		Url:         req.Url,
		FileName:    req.FileName,
		FileType:    req.FileType,
		FileSize:    req.FileSize,
		ReplyToUuid: req.ReplyToUuid,
	}
	if err := d.repos.Message.Create(&message); err != nil {
		zap.L().Error("message persist failed", zap.Error(err))
		// 落库失败只通知发起方，绝不广播
		conn.SendError("消息发送失败，请稍后重试")
		return
	}

	now := time.Now()
	// 发送者已读标记与会话最新消息指针同属落库步骤，
	// 任何一步失败都只回错给发起方，不广播
	if err := d.repos.Message.MarkRead(&model.MessageRead{
		MessageUuid: message.Uuid,
		ChatUuid:    message.ChatUuid,
		UserUuid:    conn.UserUuid,
		ReadAt:      now,
	}); err != nil {
		zap.L().Error("sender read marker failed", zap.Error(err))
		conn.SendError("消息发送失败，请稍后重试")
		return
	}
	if err := d.repos.Chat.UpdateLastMessage(message.ChatUuid, messagePreview(&message), now); err != nil {
		zap.L().Error("chat last message update failed", zap.Error(err))
		conn.SendError("消息发送失败，请稍后重试")
		return
	}

	rsp := MessageNewData{
		Uuid:        message.Uuid,
		ChatUuid:    message.ChatUuid,
		SendId:      message.SendId,
		Type:        message.Type,
		Content:     message.Content,
		Url:         message.Url,
		FileName:    message.FileName,
		FileType:    message.FileType,
		FileSize:    message.FileSize,
		ReplyToUuid: message.ReplyToUuid,
		CreatedAt:   now.Format("2006-01-02 15:04:05"),
	}
	// 发送者昵称头像走缓存快照，查不到不阻断投递
	if snap, err := d.cacheSvc.GetUser(ctx, conn.UserUuid); err == nil {
		rsp.SendName = snap.Nickname
		rsp.SendAvatar = snap.Avatar
	}

	// 房间内所有连接（含发送者自己的回显）各收到一次
	d.fanout.BroadcastToRoom(message.ChatUuid, EventMessageNew, &rsp, "")
}

// handleMessageRead 处理已读回执，落库后通知房间内全部连接（含发起方回显）
func (d *Dispatcher) handleMessageRead(conn *UserConn, data json.RawMessage) {
	var req MessageReadData
	if err := json.Unmarshal(data, &req); err != nil || req.ChatUuid == "" || req.MessageUuid == 0 {
		conn.SendError("已读回执格式不正确")
		return
	}
	if !d.isMember(req.ChatUuid, conn.UserUuid) {
		conn.SendError("你不是该聊天的成员")
		return
	}

	now := time.Now()
	// 重复标记是幂等的
	if err := d.repos.Message.MarkRead(&model.MessageRead{
		MessageUuid: req.MessageUuid,
		ChatUuid:    req.ChatUuid,
		UserUuid:    conn.UserUuid,
		ReadAt:      now,
	}); err != nil {
		zap.L().Error("read marker persist failed", zap.Error(err))
		conn.SendError("已读标记失败，请稍后重试")
		return
	}

	d.fanout.BroadcastToRoom(req.ChatUuid, EventMessageRead, &MessageReadData{
		ChatUuid:    req.ChatUuid,
		MessageUuid: req.MessageUuid,
		UserUuid:    conn.UserUuid,
		ReadAt:      now.Format("2006-01-02 15:04:05"),
	}, "")
}

// handleTyping 处理输入状态，不落库，直接扇出 typing:update
func (d *Dispatcher) handleTyping(conn *UserConn, data json.RawMessage, typing bool) {
	var req TypingData
	if err := json.Unmarshal(data, &req); err != nil || req.ChatUuid == "" {
		conn.SendError("输入状态格式不正确")
		return
	}
	if !d.isMember(req.ChatUuid, conn.UserUuid) {
		conn.SendError("你不是该聊天的成员")
		return
	}

	d.fanout.BroadcastToRoom(req.ChatUuid, EventTypingUpdate, &TypingUpdateData{
		ChatUuid: req.ChatUuid,
		UserUuid: conn.UserUuid,
		Typing:   typing,
	}, conn.ConnId)
}

// handleChatJoin 显式加入房间，重新核验持久化成员资格
func (d *Dispatcher) handleChatJoin(conn *UserConn, data json.RawMessage) {
	var req ChatRoomData
	if err := json.Unmarshal(data, &req); err != nil || req.ChatUuid == "" {
		conn.SendError("房间请求格式不正确")
		return
	}
	if !d.isMember(req.ChatUuid, conn.UserUuid) {
		// 越权加入：回错且不订阅
		conn.SendError("你不是该聊天的成员，无法加入")
		return
	}
	d.registry.JoinRoom(conn, req.ChatUuid)
}

// handleChatLeave 退出房间订阅，只影响本连接
func (d *Dispatcher) handleChatLeave(conn *UserConn, data json.RawMessage) {
	var req ChatRoomData
	if err := json.Unmarshal(data, &req); err != nil || req.ChatUuid == "" {
		conn.SendError("房间请求格式不正确")
		return
	}
	d.registry.LeaveRoom(conn, req.ChatUuid)
}

// relayCallSignal 通话信令透传
// 只路由到目标用户的个人通道，不鉴权、不落库，信令内容原样转发
func (d *Dispatcher) relayCallSignal(conn *UserConn, data json.RawMessage, outEvent string) {
	var req CallSignalData
	if err := json.Unmarshal(data, &req); err != nil || req.TargetUuid == "" {
		conn.SendError("通话信令格式不正确")
		return
	}

	d.fanout.SendToUser(req.TargetUuid, outEvent, &CallSignalData{
		TargetUuid: req.TargetUuid,
		FromUuid:   conn.UserUuid,
		Signal:     req.Signal,
	})
}

// isMember 查权威成员名单
func (d *Dispatcher) isMember(chatUuid, userUuid string) bool {
	_, err := d.repos.ChatMember.FindMember(chatUuid, userUuid)
	if err != nil {
		if !errorx.IsNotFound(err) {
			zap.L().Error("membership lookup failed", zap.Error(err))
		}
		return false
	}
	return true
}

// messagePreview 生成会话列表用的最新消息摘要
func messagePreview(m *model.Message) string {
	if m.Content != "" {
		preview := []rune(m.Content)
		if len(preview) > 50 {
			return string(preview[:50])
		}
		return m.Content
	}
	if m.FileName != "" {
		return "[文件] " + m.FileName
	}
	return "[消息]"
}
