// Package cache 提供会话与用户快照的读穿缓存层
// Redis 永远不是真相来源：任何读 miss 或缓存故障都回退 MySQL，
// 任何写入先落库再动缓存
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/dao/redis"
	"nexchat_server/internal/model"
	"nexchat_server/pkg/constants"
	"nexchat_server/pkg/enum/session_status_enum"
	"nexchat_server/pkg/errorx"
)

// 缓存键前缀
const (
	sessionKeyPrefix      = "session_"       // session_<token> -> SessionSnapshot JSON
	userKeyPrefix         = "user_info_"     // user_info_<uuid> -> UserSnapshot JSON
	userSessionsKeyPrefix = "user_sessions_" // user_sessions_<uuid> -> token 集合（二级索引）
)

// SessionSnapshot 会话缓存快照
type SessionSnapshot struct {
	Token        string    `json:"token"`
	UserUuid     string    `json:"user_uuid"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// UserSnapshot 用户缓存快照
// 只缓存 realtime 路径需要的字段，不含密码哈希
type UserSnapshot struct {
	Uuid      string `json:"uuid"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Signature string `json:"signature"`
	Status    string `json:"status"`
}

// Service 读穿缓存服务
// lastActive 回写通过进程内 ttlcache 节流：每个会话每 5 分钟最多落库一次
type Service struct {
	repos    *repository.Repositories
	cache    redis.AsyncCacheService
	throttle *ttlcache.Cache[string, struct{}]
}

// NewService 创建缓存服务实例
func NewService(repos *repository.Repositories, cache redis.AsyncCacheService) *Service {
	throttle := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](constants.LAST_ACTIVE_INTERVAL),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go throttle.Start() // 后台清理过期项

	return &Service{
		repos:    repos,
		cache:    cache,
		throttle: throttle,
	}
}

// ==================== 会话 ====================

// GetSession 获取有效会话快照
// 命中缓存直接返回；未命中或缓存异常回源数据库，成功后异步回填。
// 会话不存在或已作废时返回 CodeNotFound
func (s *Service) GetSession(ctx context.Context, token string) (*SessionSnapshot, error) {
	key := sessionKeyPrefix + token

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		// 缓存故障不阻断请求，降级直查数据库
		zap.L().Warn("session cache unavailable, falling back to db", zap.Error(err))
	} else if value != "" {
		var snap SessionSnapshot
		if err := json.Unmarshal([]byte(value), &snap); err == nil {
			return &snap, nil
		}
		zap.L().Warn("session cache unmarshal failed, falling back to db", zap.Error(err))
	}

	session, err := s.repos.Session.FindByToken(token)
	if err != nil {
		return nil, err
	}
	if session.Status != session_status_enum.VALID {
		return nil, errorx.New(errorx.CodeNotFound, "会话已作废")
	}

	snap := snapshotFromSession(session)
	s.writeSessionSnapshot(snap)
	return snap, nil
}

// PutSession 登录时写入会话快照并登记到用户的令牌集合
// 数据库记录已由调用方创建，这里只负责缓存侧
func (s *Service) PutSession(ctx context.Context, session *model.Session) {
	snap := snapshotFromSession(session)
	s.writeSessionSnapshot(snap)
}

// TouchSession 记录会话活跃
// 进程内节流：同一会话 5 分钟内只触发一次数据库回写。
// 回写通过 Worker Pool 异步执行，不阻塞请求路径
func (s *Service) TouchSession(ctx context.Context, token string) {
	if s.throttle.Get(token) != nil {
		return // 窗口内已经写过
	}
	s.throttle.Set(token, struct{}{}, ttlcache.DefaultTTL)

	now := time.Now()
	s.cache.SubmitTask(func() {
		if err := s.repos.Session.UpdateLastActive(token, now); err != nil {
			zap.L().Error("session last_active write-back failed", zap.Error(err))
			// 落库失败则移除节流标记，下次活跃重试
			s.throttle.Delete(token)
			return
		}
		// 同步刷新缓存快照里的活跃时间
		s.refreshSessionActiveAt(token, now)
	})
}

// InvalidateSession 作废单个会话
// 先落库（真相来源），成功后再清理缓存键与二级索引
func (s *Service) InvalidateSession(ctx context.Context, token string) error {
	// 清理二级索引需要 user_uuid，作废前先读出会话
	session, err := s.repos.Session.FindByToken(token)
	if err != nil {
		if errorx.IsNotFound(err) {
			// 会话本就不存在，幂等成功，但仍清一次缓存键
			s.dropSessionKey(token, "")
			return nil
		}
		return err
	}

	if err := s.repos.Session.InvalidateByToken(token); err != nil {
		return err
	}

	s.dropSessionKey(token, session.UserUuid)
	return nil
}

// InvalidateUserSessions 作废用户的全部会话
// excludeToken 非空时保留该会话（改密码时保留当前登录）
func (s *Service) InvalidateUserSessions(ctx context.Context, userUuid string, excludeToken string) error {
	if err := s.repos.Session.InvalidateByUserUuid(userUuid, excludeToken); err != nil {
		return err
	}

	// 通过二级索引逐个删除会话缓存键
	setKey := userSessionsKeyPrefix + userUuid
	tokens, err := s.cache.GetSetMembers(ctx, setKey)
	if err != nil {
		// 索引不可用走粗粒度兜底：清掉全部会话缓存键。
		// 代价是其他用户的会话读穿重建一次，换来已作废会话立即不可读
		zap.L().Warn("user sessions index unavailable, flushing session keys", zap.Error(err))
		if err := s.cache.DeleteByPattern(ctx, sessionKeyPrefix+"*"); err != nil {
			zap.L().Error("session key flush failed, stale entries expire by ttl", zap.Error(err))
		}
		return nil
	}
	for _, token := range tokens {
		if token == excludeToken {
			continue
		}
		if err := s.cache.Delete(ctx, sessionKeyPrefix+token); err != nil {
			zap.L().Error("delete session cache failed", zap.String("token", token), zap.Error(err))
		}
		if err := s.cache.RemoveFromSet(ctx, setKey, token); err != nil {
			zap.L().Error("remove token from user sessions index failed", zap.Error(err))
		}
	}
	return nil
}

// ==================== 用户 ====================

// GetUser 获取用户快照，读穿逻辑与 GetSession 一致
func (s *Service) GetUser(ctx context.Context, uuid string) (*UserSnapshot, error) {
	key := userKeyPrefix + uuid

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("user cache unavailable, falling back to db", zap.Error(err))
	} else if value != "" {
		var snap UserSnapshot
		if err := json.Unmarshal([]byte(value), &snap); err == nil {
			return &snap, nil
		}
		zap.L().Warn("user cache unmarshal failed, falling back to db", zap.Error(err))
	}

	user, err := s.repos.User.FindByUuid(uuid)
	if err != nil {
		return nil, err
	}

	snap := snapshotFromUser(user)
	s.writeUserSnapshot(snap)
	return snap, nil
}

// PutUser 资料落库成功后写穿用户快照
// 数据库更新已由调用方完成，这里只负责缓存侧
func (s *Service) PutUser(ctx context.Context, user *model.UserInfo) {
	s.writeUserSnapshot(snapshotFromUser(user))
}

// InvalidateUser 用户资料变更后清除快照
// 调用前提：数据库更新已经成功
func (s *Service) InvalidateUser(ctx context.Context, uuid string) {
	if err := s.cache.Delete(ctx, userKeyPrefix+uuid); err != nil {
		// 删除失败只能靠 TTL 兜底，记录下来
		zap.L().Error("invalidate user cache failed", zap.String("uuid", uuid), zap.Error(err))
	}
}

// ==================== 内部方法 ====================

func snapshotFromUser(user *model.UserInfo) *UserSnapshot {
	return &UserSnapshot{
		Uuid:      user.Uuid,
		Nickname:  user.Nickname,
		Email:     user.Email,
		Avatar:    user.Avatar,
		Signature: user.Signature,
		Status:    user.Status,
	}
}

// writeUserSnapshot 异步写入用户快照
func (s *Service) writeUserSnapshot(snap *UserSnapshot) {
	s.cache.SubmitTask(func() {
		data, err := json.Marshal(snap)
		if err != nil {
			zap.L().Error("user snapshot marshal failed", zap.Error(err))
			return
		}
		if err := s.cache.Set(context.Background(), userKeyPrefix+snap.Uuid, string(data), constants.SESSION_CACHE_TTL); err != nil {
			zap.L().Error("user snapshot cache set failed", zap.Error(err))
		}
	})
}

func snapshotFromSession(session *model.Session) *SessionSnapshot {
	snap := &SessionSnapshot{
		Token:    session.Token,
		UserUuid: session.UserUuid,
	}
	if session.LastActiveAt.Valid {
		snap.LastActiveAt = session.LastActiveAt.Time
	}
	return snap
}

// writeSessionSnapshot 异步写入会话快照并维护二级索引
func (s *Service) writeSessionSnapshot(snap *SessionSnapshot) {
	s.cache.SubmitTask(func() {
		ctx := context.Background()
		data, err := json.Marshal(snap)
		if err != nil {
			zap.L().Error("session snapshot marshal failed", zap.Error(err))
			return
		}
		if err := s.cache.Set(ctx, sessionKeyPrefix+snap.Token, string(data), constants.SESSION_CACHE_TTL); err != nil {
			zap.L().Error("session snapshot cache set failed", zap.Error(err))
			return
		}
		if err := s.cache.AddToSet(ctx, userSessionsKeyPrefix+snap.UserUuid, snap.Token); err != nil {
			zap.L().Error("user sessions index add failed", zap.Error(err))
		}
	})
}

// refreshSessionActiveAt 节流回写落库后刷新缓存快照
func (s *Service) refreshSessionActiveAt(token string, at time.Time) {
	ctx := context.Background()
	key := sessionKeyPrefix + token
	value, err := s.cache.Get(ctx, key)
	if err != nil || value == "" {
		return // 缓存没有快照就等下次读穿重建
	}
	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		return
	}
	snap.LastActiveAt = at
	data, err := json.Marshal(&snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), constants.SESSION_CACHE_TTL); err != nil {
		zap.L().Error("session snapshot refresh failed", zap.Error(err))
	}
}

// dropSessionKey 删除会话缓存键并维护二级索引
func (s *Service) dropSessionKey(token, userUuid string) {
	ctx := context.Background()
	if err := s.cache.Delete(ctx, sessionKeyPrefix+token); err != nil {
		zap.L().Error("delete session cache failed", zap.String("token", token), zap.Error(err))
	}
	if userUuid != "" {
		if err := s.cache.RemoveFromSet(ctx, userSessionsKeyPrefix+userUuid, token); err != nil {
			zap.L().Error("remove token from user sessions index failed", zap.Error(err))
		}
	}
	s.throttle.Delete(token)
}
