package chat

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/model"
	"nexchat_server/internal/service/cache"
	"nexchat_server/pkg/errorx"
	myjwt "nexchat_server/pkg/util/jwt"
)

// stubSessionRepo 内存会话表，握手核验用
type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func (s *stubSessionRepo) FindByToken(token string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return nil, errorx.New(errorx.CodeNotFound, "会话不存在")
}
func (s *stubSessionRepo) Create(session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}
func (s *stubSessionRepo) UpdateLastActive(token string, at time.Time) error { return nil }
func (s *stubSessionRepo) InvalidateByToken(token string) error              { return nil }
func (s *stubSessionRepo) InvalidateByUserUuid(userUuid, excludeToken string) error {
	return nil
}

// presenceUserRepo 记录在线状态落库调用的用户仓库
type presenceUserRepo struct {
	stubUserRepo
	mu       sync.Mutex
	statuses []string
}

func (s *presenceUserRepo) UpdateStatus(uuid, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, uuid+":"+status)
	return nil
}

func (s *presenceUserRepo) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statuses...)
}

// startTestServer 起一个真实的 WebSocket 端点
func startTestServer(t *testing.T) (*httptest.Server, *ChatServer, *presenceUserRepo, *stubSessionRepo) {
	t.Helper()
	myjwt.Init("test-secret-at-least-32-characters!", 30, 168)

	sessions := &stubSessionRepo{sessions: make(map[string]*model.Session)}
	users := &presenceUserRepo{stubUserRepo: stubUserRepo{users: map[string]*model.UserInfo{
		"U_alice": {Uuid: "U_alice", Nickname: "爱丽丝"},
		"U_bob":   {Uuid: "U_bob", Nickname: "鲍勃"},
	}}}
	repos := &repository.Repositories{
		User:       users,
		Session:    sessions,
		ChatMember: &stubChatMemberRepo{},
		Message:    &stubMessageRepo{},
		Chat:       &stubChatRepo{},
	}

	cs := NewChatServer(ChatServerConfig{
		Mode:         "channel",
		Repos:        repos,
		CacheService: cache.NewService(repos, nullCache{}),
	})
	cs.Start()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/wss", cs.HandleConnection)
	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		srv.Close()
		cs.Close()
	})
	return srv, cs, users, sessions
}

// dialAs 以指定用户身份完成握手
func dialAs(t *testing.T, srv *httptest.Server, sessions *stubSessionRepo, userUuid, sessionToken string) *websocket.Conn {
	t.Helper()
	_ = sessions.Create(&model.Session{Token: sessionToken, UserUuid: userUuid})
	token, err := myjwt.GenerateAccessToken(userUuid, sessionToken)
	if err != nil {
		t.Fatal(err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wss?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial as %s: %v", userUuid, err)
	}
	return conn
}

// readWireFrame 带超时读一帧，超时或连接关闭返回 false
func readWireFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) (*Frame, bool) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("wire frame unmarshal: %v", err)
	}
	return &f, true
}

func TestHandshakeRejectedWithErrorFrame(t *testing.T) {
	srv, _, _, _ := startTestServer(t)

	// 伪造令牌：升级成功，但第一帧是 error 事件，随后连接关闭
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wss?token=bogus"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	frame, ok := readWireFrame(t, conn, 2*time.Second)
	if !ok || frame.Event != EventError {
		t.Fatalf("expected error frame, got %+v ok=%v", frame, ok)
	}
	if _, ok := readWireFrame(t, conn, 2*time.Second); ok {
		t.Fatal("connection should be closed after rejection")
	}
}

func TestHandshakeRejectedForInvalidatedSession(t *testing.T) {
	srv, _, _, sessions := startTestServer(t)

	// 令牌本身有效，但背后的会话已作废
	_ = sessions.Create(&model.Session{Token: "dead-session", UserUuid: "U_alice", Status: 1})
	token, err := myjwt.GenerateAccessToken("U_alice", "dead-session")
	if err != nil {
		t.Fatal(err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wss?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	frame, ok := readWireFrame(t, conn, 2*time.Second)
	if !ok || frame.Event != EventError {
		t.Fatalf("expected error frame, got %+v ok=%v", frame, ok)
	}
}

func TestKickSessionAndUser(t *testing.T) {
	srv, cs, _, sessions := startTestServer(t)

	waitAliceConns := func(n int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for len(cs.Registry.UserConns("U_alice")) != n {
			if time.Now().After(deadline) {
				t.Fatalf("alice conns never reached %d", n)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	c1 := dialAs(t, srv, sessions, "U_alice", "sess-1")
	defer c1.Close()
	c2 := dialAs(t, srv, sessions, "U_alice", "sess-2")
	defer c2.Close()
	c3 := dialAs(t, srv, sessions, "U_alice", "sess-3")
	defer c3.Close()
	waitAliceConns(3)

	// 登出：只踢该会话的连接
	cs.KickSession("sess-1")
	waitAliceConns(2)
	if _, ok := readWireFrame(t, c1, 2*time.Second); ok {
		t.Fatal("kicked session's connection should be closed")
	}

	// 改密码：踢掉当前会话以外的全部连接
	cs.KickUser("U_alice", "sess-2")
	waitAliceConns(1)
	if _, ok := readWireFrame(t, c3, 2*time.Second); ok {
		t.Fatal("other session's connection should be closed")
	}
	remaining := cs.Registry.UserConns("U_alice")
	if len(remaining) != 1 || remaining[0].SessionToken != "sess-2" {
		t.Fatalf("excluded session should survive, got %+v", remaining)
	}
}

func TestPresenceLifecycle(t *testing.T) {
	srv, cs, users, sessions := startTestServer(t)

	// bob 先上线作为观察者
	bob := dialAs(t, srv, sessions, "U_bob", "sess-bob")
	defer bob.Close()

	// 读超时会污染 gorilla 连接，之后的读全部失败；
	// 负向断言改用标记帧：bob 的下一帧若是标记，说明中间没有别的广播
	marker := func(tag string) {
		t.Helper()
		cs.BroadcastUserStatus(tag, "away")
		frame, ok := readWireFrame(t, bob, 2*time.Second)
		if !ok || frame.Event != EventUserStatus {
			t.Fatalf("expected marker user:status, got %+v ok=%v", frame, ok)
		}
		var status UserStatusData
		if err := json.Unmarshal(frame.Data, &status); err != nil {
			t.Fatal(err)
		}
		if status.UserUuid != tag {
			t.Fatalf("marker user: got %s, want %s", status.UserUuid, tag)
		}
	}
	waitAliceConns := func(n int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for len(cs.Registry.UserConns("U_alice")) != n {
			if time.Now().After(deadline) {
				t.Fatalf("alice conns never reached %d", n)
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	// alice 第一条连接：bob 收到恰好一条 user:online
	alice1 := dialAs(t, srv, sessions, "U_alice", "sess-alice-1")
	frame, ok := readWireFrame(t, bob, 2*time.Second)
	if !ok || frame.Event != EventUserOnline {
		t.Fatalf("expected user:online, got %+v ok=%v", frame, ok)
	}
	var status UserStatusData
	if err := json.Unmarshal(frame.Data, &status); err != nil {
		t.Fatal(err)
	}
	if status.UserUuid != "U_alice" {
		t.Fatalf("online user: got %s", status.UserUuid)
	}

	// alice 第二个标签页：不触发重复上线广播
	alice2 := dialAs(t, srv, sessions, "U_alice", "sess-alice-2")
	waitAliceConns(2)
	marker("U_m1")

	// 关第一条：还有存活连接，不下线
	_ = alice1.Close()
	waitAliceConns(1)
	if !cs.Registry.IsOnline("U_alice") {
		t.Fatal("alice should still be online")
	}
	marker("U_m2")

	// 关最后一条：恰好一条 user:offline，且离线状态落库
	_ = alice2.Close()
	frame, ok = readWireFrame(t, bob, 2*time.Second)
	if !ok || frame.Event != EventUserOffline {
		t.Fatalf("expected user:offline, got %+v ok=%v", frame, ok)
	}
	marker("U_m3")

	deadline := time.Now().Add(2 * time.Second)
	for {
		recorded := users.recorded()
		if len(recorded) > 0 && recorded[len(recorded)-1] == "U_alice:offline" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("offline status not persisted, recorded: %v", recorded)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
