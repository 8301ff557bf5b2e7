package chat

import (
	"testing"
)

// newTestConn 构造一条不带底层 WebSocket 的测试连接
// Send 缓冲足够大，测试中不会触发慢消费者路径
func newTestConn(connId, userUuid string) *UserConn {
	return &UserConn{
		ConnId:   connId,
		UserUuid: userUuid,
		Send:     make(chan []byte, 64),
	}
}

func TestRegisterCountsConnections(t *testing.T) {
	r := NewConnRegistry()

	c1 := newTestConn("conn-1", "U_alice")
	if got := r.Register(c1); got != 1 {
		t.Fatalf("first register: got %d, want 1", got)
	}

	// 同一用户第二个标签页
	c2 := newTestConn("conn-2", "U_alice")
	if got := r.Register(c2); got != 2 {
		t.Fatalf("second register: got %d, want 2", got)
	}

	if !r.IsOnline("U_alice") {
		t.Fatal("user should be online")
	}
	if got := r.OnlineCount(); got != 1 {
		t.Fatalf("online count: got %d, want 1", got)
	}
}

func TestUnregisterRemaining(t *testing.T) {
	r := NewConnRegistry()
	c1 := newTestConn("conn-1", "U_alice")
	c2 := newTestConn("conn-2", "U_alice")
	r.Register(c1)
	r.Register(c2)

	if got := r.Unregister(c1); got != 1 {
		t.Fatalf("after first unregister: got %d, want 1", got)
	}
	if !r.IsOnline("U_alice") {
		t.Fatal("user should still be online with one connection left")
	}

	if got := r.Unregister(c2); got != 0 {
		t.Fatalf("after last unregister: got %d, want 0", got)
	}
	if r.IsOnline("U_alice") {
		t.Fatal("user should be offline")
	}

	// 重复注销幂等，不会把剩余数算成负的
	if got := r.Unregister(c2); got != 0 {
		t.Fatalf("repeated unregister: got %d, want 0", got)
	}
}

func TestUnregisterKeepsOtherTabOnline(t *testing.T) {
	r := NewConnRegistry()
	c1 := newTestConn("conn-1", "U_alice")
	c2 := newTestConn("conn-2", "U_alice")
	r.Register(c1)
	r.Register(c2)

	// 对已注销连接再次注销，返回该用户当前剩余数
	r.Unregister(c1)
	if got := r.Unregister(c1); got != 1 {
		t.Fatalf("repeated unregister with sibling alive: got %d, want 1", got)
	}
}

func TestRoomSubscription(t *testing.T) {
	r := NewConnRegistry()
	c1 := newTestConn("conn-1", "U_alice")
	c2 := newTestConn("conn-2", "U_bob")
	r.Register(c1)
	r.Register(c2)

	r.JoinRoom(c1, "C_room")
	r.JoinRoom(c2, "C_room")

	if !r.InRoom(c1, "C_room") || !r.InRoom(c2, "C_room") {
		t.Fatal("both connections should be in room")
	}
	if got := len(r.RoomConns("C_room")); got != 2 {
		t.Fatalf("room conns: got %d, want 2", got)
	}

	r.LeaveRoom(c1, "C_room")
	if r.InRoom(c1, "C_room") {
		t.Fatal("conn should have left room")
	}
	if got := len(r.RoomConns("C_room")); got != 1 {
		t.Fatalf("room conns after leave: got %d, want 1", got)
	}
}

func TestJoinRoomAfterUnregisterIsNoop(t *testing.T) {
	r := NewConnRegistry()
	c := newTestConn("conn-1", "U_alice")
	r.Register(c)
	r.Unregister(c)

	r.JoinRoom(c, "C_room")
	if r.InRoom(c, "C_room") {
		t.Fatal("unregistered conn must not join room")
	}
	if got := len(r.RoomConns("C_room")); got != 0 {
		t.Fatalf("room conns: got %d, want 0", got)
	}
}

func TestUnregisterClearsRoomSubscriptions(t *testing.T) {
	r := NewConnRegistry()
	c := newTestConn("conn-1", "U_alice")
	r.Register(c)
	r.JoinRoom(c, "C_room1")
	r.JoinRoom(c, "C_room2")

	r.Unregister(c)

	if got := len(r.RoomConns("C_room1")); got != 0 {
		t.Fatalf("room1 conns: got %d, want 0", got)
	}
	if got := len(r.RoomConns("C_room2")); got != 0 {
		t.Fatalf("room2 conns: got %d, want 0", got)
	}
}

func TestGetConn(t *testing.T) {
	r := NewConnRegistry()
	c := newTestConn("conn-1", "U_alice")
	r.Register(c)

	if r.GetConn("conn-1") != c {
		t.Fatal("GetConn should return registered conn")
	}
	r.Unregister(c)
	if r.GetConn("conn-1") != nil {
		t.Fatal("GetConn should return nil after unregister")
	}
}
