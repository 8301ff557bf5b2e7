package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/model"
	"nexchat_server/internal/service/cache"
	"nexchat_server/pkg/errorx"
)

// ==================== 测试替身 ====================

// nullCache 所有读都 miss、所有写都成功的缓存替身
// SubmitTask 同步执行，测试里不需要等待异步回填
type nullCache struct{}

func (nullCache) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }
func (nullCache) Get(ctx context.Context, key string) (string, error)                 { return "", nil }
func (nullCache) Delete(ctx context.Context, key string) error                        { return nil }
func (nullCache) DeleteByPattern(ctx context.Context, pattern string) error           { return nil }
func (nullCache) AddToSet(ctx context.Context, key string, m ...interface{}) error {
	return nil
}
func (nullCache) GetSetMembers(ctx context.Context, key string) ([]string, error) {
	return nil, nil
}
func (nullCache) RemoveFromSet(ctx context.Context, key string, m ...interface{}) error {
	return nil
}
func (nullCache) SubmitTask(action func()) { action() }

// stubUserRepo 内存用户表
type stubUserRepo struct {
	users map[string]*model.UserInfo
}

func (s *stubUserRepo) FindByUuid(uuid string) (*model.UserInfo, error) {
	if u, ok := s.users[uuid]; ok {
		return u, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
}
func (s *stubUserRepo) FindByEmail(email string) (*model.UserInfo, error) {
	return nil, errorx.New(errorx.CodeNotFound, "用户不存在")
}
func (s *stubUserRepo) Create(user *model.UserInfo) error         { return nil }
func (s *stubUserRepo) UpdateUserInfo(user *model.UserInfo) error { return nil }
func (s *stubUserRepo) UpdatePassword(uuid, raw string) error     { return nil }
func (s *stubUserRepo) UpdateStatus(uuid, status string, at time.Time) error {
	return nil
}

// stubChatMemberRepo 内存成员名单，chatUuid -> 成员集合
type stubChatMemberRepo struct {
	members map[string]map[string]bool
}

func (s *stubChatMemberRepo) FindMember(chatUuid, userUuid string) (*model.ChatMember, error) {
	if s.members[chatUuid][userUuid] {
		return &model.ChatMember{ChatUuid: chatUuid, UserUuid: userUuid}, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "不是聊天成员")
}
func (s *stubChatMemberRepo) FindByChatUuid(chatUuid string) ([]model.ChatMember, error) {
	var out []model.ChatMember
	for userUuid := range s.members[chatUuid] {
		out = append(out, model.ChatMember{ChatUuid: chatUuid, UserUuid: userUuid})
	}
	return out, nil
}
func (s *stubChatMemberRepo) FindByUserUuid(userUuid string) ([]model.ChatMember, error) {
	var out []model.ChatMember
	for chatUuid, set := range s.members {
		if set[userUuid] {
			out = append(out, model.ChatMember{ChatUuid: chatUuid, UserUuid: userUuid})
		}
	}
	return out, nil
}
func (s *stubChatMemberRepo) Create(member *model.ChatMember) error { return nil }
func (s *stubChatMemberRepo) Delete(chatUuid, userUuid string) error {
	return nil
}

// stubMessageRepo 记录落库调用的消息仓库
type stubMessageRepo struct {
	mu           sync.Mutex
	failCreate   bool
	failMarkRead bool
	created      []*model.Message
	reads        []*model.MessageRead
}

func (s *stubMessageRepo) Create(message *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errorx.New(errorx.CodeDBError, "数据库不可用")
	}
	s.created = append(s.created, message)
	return nil
}
func (s *stubMessageRepo) FindByUuid(uuid int64) (*model.Message, error) {
	return nil, errorx.New(errorx.CodeNotFound, "消息不存在")
}
func (s *stubMessageRepo) FindByChatUuid(chatUuid string, beforeUuid int64, limit int) ([]model.Message, error) {
	return nil, nil
}
func (s *stubMessageRepo) Tombstone(uuid int64) error { return nil }
func (s *stubMessageRepo) MarkRead(read *model.MessageRead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkRead {
		return errorx.New(errorx.CodeDBError, "数据库不可用")
	}
	s.reads = append(s.reads, read)
	return nil
}

// stubChatRepo 记录最新消息指针更新
type stubChatRepo struct {
	failUpdate  bool
	lastPreview string
}

func (s *stubChatRepo) FindByUuid(uuid string) (*model.Chat, error) {
	return &model.Chat{Uuid: uuid}, nil
}
func (s *stubChatRepo) Create(chat *model.Chat) error { return nil }
func (s *stubChatRepo) UpdateLastMessage(uuid, preview string, at time.Time) error {
	if s.failUpdate {
		return errorx.New(errorx.CodeDBError, "数据库不可用")
	}
	s.lastPreview = preview
	return nil
}

// ==================== 测试脚手架 ====================

type dispatchFixture struct {
	registry *ConnRegistry
	dispatch *Dispatcher
	members  *stubChatMemberRepo
	messages *stubMessageRepo
	chats    *stubChatRepo
}

func newDispatchFixture(members map[string]map[string]bool) *dispatchFixture {
	memberRepo := &stubChatMemberRepo{members: members}
	messageRepo := &stubMessageRepo{}
	chatRepo := &stubChatRepo{}
	repos := &repository.Repositories{
		User: &stubUserRepo{users: map[string]*model.UserInfo{
			"U_alice": {Uuid: "U_alice", Nickname: "爱丽丝", Avatar: "a.png"},
			"U_bob":   {Uuid: "U_bob", Nickname: "鲍勃"},
		}},
		ChatMember: memberRepo,
		Message:    messageRepo,
		Chat:       chatRepo,
	}

	registry := NewConnRegistry()
	fanout := NewFanoutEngine(registry)
	cacheSvc := cache.NewService(repos, nullCache{})
	return &dispatchFixture{
		registry: registry,
		dispatch: NewDispatcher(registry, fanout, repos, cacheSvc),
		members:  memberRepo,
		messages: messageRepo,
		chats:    chatRepo,
	}
}

// deliver 模拟读协程：组帧、装信封、交给调度器
func deliver(t *testing.T, d *Dispatcher, conn *UserConn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("payload marshal: %v", err)
	}
	frame, err := json.Marshal(&Frame{Event: event, Data: data})
	if err != nil {
		t.Fatalf("frame marshal: %v", err)
	}
	envelope, err := json.Marshal(&inboundEnvelope{
		ConnId:   conn.ConnId,
		UserUuid: conn.UserUuid,
		Frame:    frame,
	})
	if err != nil {
		t.Fatalf("envelope marshal: %v", err)
	}
	d.HandleEnvelope(envelope)
}

// ==================== 用例 ====================

func TestMessageSendFanout(t *testing.T) {
	f := newDispatchFixture(map[string]map[string]bool{
		"C_room": {"U_alice": true, "U_bob": true},
	})

	a1 := newTestConn("conn-a1", "U_alice")
	a2 := newTestConn("conn-a2", "U_alice")
	b1 := newTestConn("conn-b1", "U_bob")
	carol := newTestConn("conn-c1", "U_carol") // 在线但不是成员
	for _, conn := range []*UserConn{a1, a2, b1, carol} {
		f.registry.Register(conn)
	}
	for _, conn := range []*UserConn{a1, a2, b1} {
		deliver(t, f.dispatch, conn, EventChatJoin, &ChatRoomData{ChatUuid: "C_room"})
	}

	// 非成员尝试加入：回错且不订阅
	deliver(t, f.dispatch, carol, EventChatJoin, &ChatRoomData{ChatUuid: "C_room"})
	carolFrames := recvFrames(t, carol)
	if len(carolFrames) != 1 || carolFrames[0].Event != EventError {
		t.Fatalf("non-member join should get error frame, got %+v", carolFrames)
	}
	if f.registry.InRoom(carol, "C_room") {
		t.Fatal("non-member must not be subscribed")
	}

	deliver(t, f.dispatch, a1, EventMessageSend, &MessageSendData{ChatUuid: "C_room", Content: "第一条"})
	deliver(t, f.dispatch, a1, EventMessageSend, &MessageSendData{ChatUuid: "C_room", Content: "第二条"})

	// 房间内每条连接（含发送者回显）恰好各收到一次，且保持发送顺序
	for _, conn := range []*UserConn{a1, a2, b1} {
		frames := recvFrames(t, conn)
		if len(frames) != 2 {
			t.Fatalf("%s: got %d frames, want 2", conn.ConnId, len(frames))
		}
		var first, second MessageNewData
		if frames[0].Event != EventMessageNew || frames[1].Event != EventMessageNew {
			t.Fatalf("%s: unexpected events %s, %s", conn.ConnId, frames[0].Event, frames[1].Event)
		}
		if err := json.Unmarshal(frames[0].Data, &first); err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal(frames[1].Data, &second); err != nil {
			t.Fatal(err)
		}
		if first.Content != "第一条" || second.Content != "第二条" {
			t.Fatalf("%s: out of order: %q, %q", conn.ConnId, first.Content, second.Content)
		}
		if first.SendId != "U_alice" || first.SendName != "爱丽丝" {
			t.Fatalf("sender info: got %q/%q", first.SendId, first.SendName)
		}
	}
	// 非成员收不到任何消息
	if got := len(recvFrames(t, carol)); got != 0 {
		t.Fatalf("non-member received %d frames, want 0", got)
	}

	if got := len(f.messages.created); got != 2 {
		t.Fatalf("persisted messages: got %d, want 2", got)
	}
	// 发送者已读标记随消息写入
	if got := len(f.messages.reads); got != 2 {
		t.Fatalf("sender read markers: got %d, want 2", got)
	}
	if f.chats.lastPreview != "第二条" {
		t.Fatalf("chat preview: got %q, want 第二条", f.chats.lastPreview)
	}
}

func TestMessageSendNonMemberRejected(t *testing.T) {
	f := newDispatchFixture(map[string]map[string]bool{
		"C_room": {"U_bob": true},
	})
	a := newTestConn("conn-a", "U_alice")
	f.registry.Register(a)

	deliver(t, f.dispatch, a, EventMessageSend, &MessageSendData{ChatUuid: "C_room", Content: "hi"})

	frames := recvFrames(t, a)
	if len(frames) != 1 || frames[0].Event != EventError {
		t.Fatalf("expected single error frame, got %+v", frames)
	}
	if len(f.messages.created) != 0 {
		t.Fatal("message from non-member must not be persisted")
	}
}

func TestMessageSendPersistFailure(t *testing.T) {
	// 三个落库步骤（消息、发送者已读标记、最新消息指针）任何一步失败
	// 都只回错给发起方，绝不产生部分广播
	cases := []struct {
		name string
		fail func(f *dispatchFixture)
	}{
		{"message create", func(f *dispatchFixture) { f.messages.failCreate = true }},
		{"sender read marker", func(f *dispatchFixture) { f.messages.failMarkRead = true }},
		{"last message pointer", func(f *dispatchFixture) { f.chats.failUpdate = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDispatchFixture(map[string]map[string]bool{
				"C_room": {"U_alice": true, "U_bob": true},
			})
			a := newTestConn("conn-a", "U_alice")
			b := newTestConn("conn-b", "U_bob")
			f.registry.Register(a)
			f.registry.Register(b)
			f.registry.JoinRoom(a, "C_room")
			f.registry.JoinRoom(b, "C_room")
			tc.fail(f)

			deliver(t, f.dispatch, a, EventMessageSend, &MessageSendData{ChatUuid: "C_room", Content: "hi"})

			frames := recvFrames(t, a)
			if len(frames) != 1 || frames[0].Event != EventError {
				t.Fatalf("sender should get exactly one error frame, got %+v", frames)
			}
			if got := len(recvFrames(t, b)); got != 0 {
				t.Fatalf("other member received %d frames, want 0", got)
			}
		})
	}
}

func TestMessageReadBroadcast(t *testing.T) {
	f := newDispatchFixture(map[string]map[string]bool{
		"C_room": {"U_alice": true, "U_bob": true},
	})
	a := newTestConn("conn-a", "U_alice")
	b := newTestConn("conn-b", "U_bob")
	f.registry.Register(a)
	f.registry.Register(b)
	f.registry.JoinRoom(a, "C_room")
	f.registry.JoinRoom(b, "C_room")

	deliver(t, f.dispatch, a, EventMessageRead, &MessageReadData{ChatUuid: "C_room", MessageUuid: 12345})

	if len(f.messages.reads) != 1 || f.messages.reads[0].MessageUuid != 12345 {
		t.Fatalf("read marker not persisted: %+v", f.messages.reads)
	}
	// 回执广播到房间内全部连接，发起连接也收到回显
	for _, conn := range []*UserConn{a, b} {
		frames := recvFrames(t, conn)
		if len(frames) != 1 || frames[0].Event != EventMessageRead {
			t.Fatalf("%s: expected one message:read frame, got %+v", conn.ConnId, frames)
		}
		var rsp MessageReadData
		if err := json.Unmarshal(frames[0].Data, &rsp); err != nil {
			t.Fatal(err)
		}
		if rsp.UserUuid != "U_alice" || rsp.MessageUuid != 12345 {
			t.Fatalf("read receipt payload: %+v", rsp)
		}
	}
}

func TestTypingUpdate(t *testing.T) {
	f := newDispatchFixture(map[string]map[string]bool{
		"C_room": {"U_alice": true, "U_bob": true},
	})
	a := newTestConn("conn-a", "U_alice")
	b := newTestConn("conn-b", "U_bob")
	f.registry.Register(a)
	f.registry.Register(b)
	f.registry.JoinRoom(a, "C_room")
	f.registry.JoinRoom(b, "C_room")

	deliver(t, f.dispatch, a, EventTypingStart, &TypingData{ChatUuid: "C_room"})
	deliver(t, f.dispatch, a, EventTypingStop, &TypingData{ChatUuid: "C_room"})

	if got := len(recvFrames(t, a)); got != 0 {
		t.Fatalf("origin conn received %d frames, want 0", got)
	}
	frames := recvFrames(t, b)
	if len(frames) != 2 {
		t.Fatalf("bob frames: got %d, want 2", len(frames))
	}
	var start, stop TypingUpdateData
	if err := json.Unmarshal(frames[0].Data, &start); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(frames[1].Data, &stop); err != nil {
		t.Fatal(err)
	}
	if !start.Typing || stop.Typing {
		t.Fatalf("typing flags: start=%v stop=%v", start.Typing, stop.Typing)
	}
	if start.UserUuid != "U_alice" {
		t.Fatalf("typing user: got %s", start.UserUuid)
	}
}

func TestCallSignalRelay(t *testing.T) {
	f := newDispatchFixture(nil)
	a := newTestConn("conn-a", "U_alice")
	b1 := newTestConn("conn-b1", "U_bob")
	b2 := newTestConn("conn-b2", "U_bob")
	for _, conn := range []*UserConn{a, b1, b2} {
		f.registry.Register(conn)
	}

	signal := json.RawMessage(`{"sdp":"offer"}`)
	deliver(t, f.dispatch, a, EventCallStart, &CallSignalData{TargetUuid: "U_bob", Signal: signal})

	// 信令只进目标用户的个人通道，全部连接各收一份
	for _, conn := range []*UserConn{b1, b2} {
		frames := recvFrames(t, conn)
		if len(frames) != 1 || frames[0].Event != EventCallIncoming {
			t.Fatalf("%s: expected call:incoming, got %+v", conn.ConnId, frames)
		}
		var rsp CallSignalData
		if err := json.Unmarshal(frames[0].Data, &rsp); err != nil {
			t.Fatal(err)
		}
		if rsp.FromUuid != "U_alice" {
			t.Fatalf("from_uuid: got %s, want U_alice", rsp.FromUuid)
		}
		if string(rsp.Signal) != string(signal) {
			t.Fatalf("signal not relayed verbatim: %s", rsp.Signal)
		}
	}
	if got := len(recvFrames(t, a)); got != 0 {
		t.Fatalf("caller received %d frames, want 0", got)
	}

	// 目标离线：静默丢弃，不给发起方回错
	deliver(t, f.dispatch, a, EventCallEnd, &CallSignalData{TargetUuid: "U_ghost"})
	if got := len(recvFrames(t, a)); got != 0 {
		t.Fatalf("caller received %d frames after offline relay, want 0", got)
	}
}

func TestUnknownEvent(t *testing.T) {
	f := newDispatchFixture(nil)
	a := newTestConn("conn-a", "U_alice")
	f.registry.Register(a)

	deliver(t, f.dispatch, a, "bogus:event", struct{}{})

	frames := recvFrames(t, a)
	if len(frames) != 1 || frames[0].Event != EventError {
		t.Fatalf("expected error frame for unknown event, got %+v", frames)
	}
}

func TestEnvelopeFromDisconnectedConn(t *testing.T) {
	f := newDispatchFixture(map[string]map[string]bool{
		"C_room": {"U_alice": true},
	})
	a := newTestConn("conn-a", "U_alice")
	// 不注册：模拟帧在队列里排队时连接已断开

	deliver(t, f.dispatch, a, EventMessageSend, &MessageSendData{ChatUuid: "C_room", Content: "hi"})

	if len(f.messages.created) != 0 {
		t.Fatal("frame from disconnected conn must be dropped")
	}
}
