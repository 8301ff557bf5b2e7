// Package chat 实现实时会话、在线状态与消息扇出子系统
// registry.go
// 核心职责：进程内在线连接表
// 1. 连接 -> 用户、用户 -> 连接集合（同一用户多标签页并存）
// 2. 房间订阅表，扇出层按此路由
// 3. 在线判定 = 用户连接集合非空
package chat

import "sync"

// ConnRegistry 在线连接注册表
// 所有映射由同一把 RWMutex 保护，读路径（扇出）远多于写路径（连接进出）
type ConnRegistry struct {
	mu sync.RWMutex
	// conns 连接 ID -> 连接
	conns map[string]*UserConn
	// users 用户 UUID -> 该用户的全部连接
	users map[string]map[*UserConn]struct{}
	// rooms 聊天 UUID -> 订阅该房间的全部连接
	rooms map[string]map[*UserConn]struct{}
	// joined 连接 -> 已订阅的房间集合，注销时反向清理
	joined map[*UserConn]map[string]struct{}
}

// NewConnRegistry 创建连接注册表
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{
		conns:  make(map[string]*UserConn),
		users:  make(map[string]map[*UserConn]struct{}),
		rooms:  make(map[string]map[*UserConn]struct{}),
		joined: make(map[*UserConn]map[string]struct{}),
	}
}

// Register 登记已通过握手认证的连接
// 返回该用户当前的连接数（含本条），1 表示用户刚上线
func (r *ConnRegistry) Register(conn *UserConn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ConnId] = conn
	set, ok := r.users[conn.UserUuid]
	if !ok {
		set = make(map[*UserConn]struct{})
		r.users[conn.UserUuid] = set
	}
	set[conn] = struct{}{}
	r.joined[conn] = make(map[string]struct{})
	return len(set)
}

// Unregister 移除连接及其全部房间订阅
// 返回该用户剩余连接数，0 表示用户彻底下线。重复注销是幂等的
func (r *ConnRegistry) Unregister(conn *UserConn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ConnId]; !ok {
		if set, ok := r.users[conn.UserUuid]; ok {
			return len(set)
		}
		return 0
	}
	delete(r.conns, conn.ConnId)

	for room := range r.joined[conn] {
		delete(r.rooms[room], conn)
		if len(r.rooms[room]) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.joined, conn)

	set := r.users[conn.UserUuid]
	delete(set, conn)
	remaining := len(set)
	if remaining == 0 {
		delete(r.users, conn.UserUuid)
	}
	return remaining
}

// JoinRoom 订阅房间，连接已注销时不生效
func (r *ConnRegistry) JoinRoom(conn *UserConn, chatUuid string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ConnId]; !ok {
		return
	}
	set, ok := r.rooms[chatUuid]
	if !ok {
		set = make(map[*UserConn]struct{})
		r.rooms[chatUuid] = set
	}
	set[conn] = struct{}{}
	r.joined[conn][chatUuid] = struct{}{}
}

// LeaveRoom 退订房间
func (r *ConnRegistry) LeaveRoom(conn *UserConn, chatUuid string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.rooms[chatUuid]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.rooms, chatUuid)
		}
	}
	if rooms, ok := r.joined[conn]; ok {
		delete(rooms, chatUuid)
	}
}

// InRoom 判断连接当前是否订阅了房间
func (r *ConnRegistry) InRoom(conn *UserConn, chatUuid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms, ok := r.joined[conn]
	if !ok {
		return false
	}
	_, ok = rooms[chatUuid]
	return ok
}

// GetConn 根据连接 ID 查找连接，已断开返回 nil
func (r *ConnRegistry) GetConn(connId string) *UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[connId]
}

// RoomConns 房间订阅者快照
func (r *ConnRegistry) RoomConns(chatUuid string) []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.rooms[chatUuid]
	conns := make([]*UserConn, 0, len(set))
	for conn := range set {
		conns = append(conns, conn)
	}
	return conns
}

// UserConns 用户连接快照（个人通道）
func (r *ConnRegistry) UserConns(userUuid string) []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userUuid]
	conns := make([]*UserConn, 0, len(set))
	for conn := range set {
		conns = append(conns, conn)
	}
	return conns
}

// AllConns 全部在线连接快照
func (r *ConnRegistry) AllConns() []*UserConn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*UserConn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// IsOnline 用户是否有存活连接
func (r *ConnRegistry) IsOnline(userUuid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userUuid]) > 0
}

// OnlineCount 在线用户数
func (r *ConnRegistry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
