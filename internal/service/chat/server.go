// Package chat 实现实时会话、在线状态与消息扇出子系统
// server.go
// 核心职责：聊天服务器聚合结构与连接生命周期
// 1. 依赖注入：注册表、扇出引擎、调度器、Broker
// 2. 握手认证：查询参数取令牌 -> JWT 校验 -> 会话核验
// 3. 上线/下线状态机：首连上线广播、末连下线落库加广播
package chat

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/service/cache"
	"nexchat_server/pkg/enum/presence_status_enum"
	myjwt "nexchat_server/pkg/util/jwt"
)

var ctx = context.Background()

// ChatServer 聊天服务器聚合结构
type ChatServer struct {
	Registry *ConnRegistry
	Fanout   *FanoutEngine
	Broker   MessageBroker

	// KafkaClient 仅 kafka 模式使用
	KafkaClient *KafkaClient

	dispatcher *Dispatcher
	repos      *repository.Repositories
	cacheSvc   *cache.Service
	mode       string
}

// ChatServerConfig 聊天服务器配置
type ChatServerConfig struct {
	Mode         string // "channel"（默认）或 "kafka"
	Repos        *repository.Repositories
	CacheService *cache.Service
}

// NewChatServer 创建聊天服务器实例
// 根据配置选择 ChannelBroker 或 KafkaBroker
func NewChatServer(cfg ChatServerConfig) *ChatServer {
	cs := &ChatServer{
		Registry: NewConnRegistry(),
		repos:    cfg.Repos,
		cacheSvc: cfg.CacheService,
		mode:     cfg.Mode,
	}
	cs.Fanout = NewFanoutEngine(cs.Registry)
	cs.dispatcher = NewDispatcher(cs.Registry, cs.Fanout, cfg.Repos, cfg.CacheService)

	if cfg.Mode == "kafka" {
		cs.KafkaClient = NewKafkaClient()
		cs.Broker = NewKafkaBroker(cs.KafkaClient, cs.dispatcher)
	} else {
		cs.Broker = NewChannelBroker(cs.dispatcher)
	}
	return cs
}

// InitKafka 初始化 Kafka 连接（仅 kafka 模式需要调用）
func (cs *ChatServer) InitKafka() {
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaInit()
	}
}

// Start 启动入站帧消费循环
func (cs *ChatServer) Start() {
	go cs.Broker.Start()
}

// Close 关闭聊天服务器
func (cs *ChatServer) Close() {
	cs.Broker.Close()
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaClose()
	}
}

// HandleConnection WebSocket 握手入口
// 令牌来自查询参数，认证失败先升级再回 error 事件后关闭，
// 让前端能拿到失败原因而不是裸 403
func (cs *ChatServer) HandleConnection(c *gin.Context) {
	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("ws upgrade failed", zap.Error(err))
		return
	}

	token := c.Query("token")
	userUuid, sessionToken, err := myjwt.VerifyAccessToken(token)
	if err != nil {
		rejectHandshake(wsConn, "凭证无效或已过期")
		return
	}
	// 令牌有效还不够，背后的会话必须仍然有效（登出/改密后立即失效）
	session, err := cs.cacheSvc.GetSession(ctx, sessionToken)
	if err != nil || session.UserUuid != userUuid {
		rejectHandshake(wsConn, "会话已失效，请重新登录")
		return
	}

	conn := newUserConn(uuid.NewString(), userUuid, sessionToken, wsConn, cs)
	count := cs.Registry.Register(conn)

	// 个人通道随注册建立；持久化聊天成员关系逐个订阅
	memberships, err := cs.repos.ChatMember.FindByUserUuid(userUuid)
	if err != nil {
		zap.L().Error("load memberships failed", zap.String("user", userUuid), zap.Error(err))
	}
	for _, m := range memberships {
		cs.Registry.JoinRoom(conn, m.ChatUuid)
	}

	// 首条连接代表用户上线
	if count == 1 {
		go cs.markOnline(userUuid)
	}

	go conn.Read()
	go conn.Write()
	zap.L().Info("ws connected", zap.String("user", userUuid), zap.String("conn", conn.ConnId))
}

// rejectHandshake 握手失败：回 error 事件后关闭连接
func rejectHandshake(wsConn *websocket.Conn, message string) {
	frame, err := MarshalFrame(EventError, &ErrorData{Message: message})
	if err == nil {
		_ = wsConn.WriteMessage(websocket.TextMessage, frame)
	}
	_ = wsConn.Close()
}

// handleDisconnect 统一断开流程，读写协程、慢消费者丢弃都走这里
// 多路触发只生效一次
func (cs *ChatServer) handleDisconnect(conn *UserConn) {
	conn.disconnectOnce.Do(func() {
		remaining := cs.Registry.Unregister(conn)
		conn.close()
		zap.L().Info("ws disconnected", zap.String("user", conn.UserUuid), zap.String("conn", conn.ConnId))

		// 末条连接断开代表用户下线，落库与广播不阻塞断开路径
		if remaining == 0 {
			go cs.markOffline(conn.UserUuid)
		}
	})
}

// markOnline 上线：落库在线状态、作废用户快照、广播 user:online
func (cs *ChatServer) markOnline(userUuid string) {
	now := time.Now()
	if err := cs.repos.User.UpdateStatus(userUuid, presence_status_enum.ONLINE, now); err != nil {
		// 状态属于尽力而为的写入，失败只记日志
		zap.L().Error("online status write failed", zap.String("user", userUuid), zap.Error(err))
	}
	cs.cacheSvc.InvalidateUser(ctx, userUuid)

	cs.Fanout.BroadcastAll(EventUserOnline, &UserStatusData{
		UserUuid: userUuid,
		Status:   presence_status_enum.ONLINE,
		At:       now.Format("2006-01-02 15:04:05"),
	}, userUuid)
}

// markOffline 下线：落库离线状态与时间戳、作废用户快照、广播 user:offline
func (cs *ChatServer) markOffline(userUuid string) {
	now := time.Now()
	if err := cs.repos.User.UpdateStatus(userUuid, presence_status_enum.OFFLINE, now); err != nil {
		zap.L().Error("offline status write failed", zap.String("user", userUuid), zap.Error(err))
	}
	cs.cacheSvc.InvalidateUser(ctx, userUuid)

	cs.Fanout.BroadcastAll(EventUserOffline, &UserStatusData{
		UserUuid: userUuid,
		Status:   presence_status_enum.OFFLINE,
		At:       now.Format("2006-01-02 15:04:05"),
	}, userUuid)
}

// BroadcastUserStatus 手动状态变更（away 等）广播 user:status
// 由用户服务在落库成功后调用
func (cs *ChatServer) BroadcastUserStatus(userUuid, status string) {
	cs.Fanout.BroadcastAll(EventUserStatus, &UserStatusData{
		UserUuid: userUuid,
		Status:   status,
		At:       time.Now().Format("2006-01-02 15:04:05"),
	}, "")
}

// KickSession 断开某个会话名下的全部连接
// 登出时调用：会话作废后，挂在它上面的 WebSocket 不能继续收发
func (cs *ChatServer) KickSession(sessionToken string) {
	for _, conn := range cs.Registry.AllConns() {
		if conn.SessionToken == sessionToken {
			cs.handleDisconnect(conn)
		}
	}
}

// KickUser 强制断开用户的连接
// excludeSessionToken 非空时保留该会话的连接（改密码时保留当前设备）
func (cs *ChatServer) KickUser(userUuid string, excludeSessionToken string) {
	for _, conn := range cs.Registry.UserConns(userUuid) {
		if excludeSessionToken != "" && conn.SessionToken == excludeSessionToken {
			continue
		}
		cs.handleDisconnect(conn)
	}
}
