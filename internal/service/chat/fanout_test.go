package chat

import (
	"encoding/json"
	"testing"
)

// recvFrames 非阻塞地取出连接 Send 通道里已有的全部帧
func recvFrames(t *testing.T, c *UserConn) []Frame {
	t.Helper()
	var frames []Frame
	for {
		select {
		case raw := <-c.Send:
			var f Frame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("frame unmarshal: %v", err)
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestBroadcastToRoom(t *testing.T) {
	r := NewConnRegistry()
	f := NewFanoutEngine(r)

	a := newTestConn("conn-a", "U_alice")
	b := newTestConn("conn-b", "U_bob")
	c := newTestConn("conn-c", "U_carol")
	for _, conn := range []*UserConn{a, b, c} {
		r.Register(conn)
	}
	r.JoinRoom(a, "C_room")
	r.JoinRoom(b, "C_room")
	// carol 在线但未订阅房间

	f.BroadcastToRoom("C_room", EventTypingUpdate, &TypingUpdateData{ChatUuid: "C_room", UserUuid: "U_alice", Typing: true}, "")

	if got := len(recvFrames(t, a)); got != 1 {
		t.Fatalf("alice frames: got %d, want 1", got)
	}
	if got := len(recvFrames(t, b)); got != 1 {
		t.Fatalf("bob frames: got %d, want 1", got)
	}
	if got := len(recvFrames(t, c)); got != 0 {
		t.Fatalf("carol should receive nothing, got %d", got)
	}
}

func TestBroadcastToRoomExcludesConn(t *testing.T) {
	r := NewConnRegistry()
	f := NewFanoutEngine(r)

	a := newTestConn("conn-a", "U_alice")
	b := newTestConn("conn-b", "U_bob")
	r.Register(a)
	r.Register(b)
	r.JoinRoom(a, "C_room")
	r.JoinRoom(b, "C_room")

	f.BroadcastToRoom("C_room", EventTypingUpdate, &TypingUpdateData{ChatUuid: "C_room"}, "conn-a")

	if got := len(recvFrames(t, a)); got != 0 {
		t.Fatalf("excluded conn should receive nothing, got %d", got)
	}
	if got := len(recvFrames(t, b)); got != 1 {
		t.Fatalf("bob frames: got %d, want 1", got)
	}
}

func TestSendToUser(t *testing.T) {
	r := NewConnRegistry()
	f := NewFanoutEngine(r)

	// 离线用户：静默丢弃
	if f.SendToUser("U_ghost", EventNotificationNew, &NotificationNewData{}) {
		t.Fatal("SendToUser to offline user should return false")
	}

	// 多连接用户：每条连接各收一份
	c1 := newTestConn("conn-1", "U_alice")
	c2 := newTestConn("conn-2", "U_alice")
	r.Register(c1)
	r.Register(c2)

	if !f.SendToUser("U_alice", EventCallIncoming, &CallSignalData{TargetUuid: "U_alice"}) {
		t.Fatal("SendToUser to online user should return true")
	}
	if got := len(recvFrames(t, c1)); got != 1 {
		t.Fatalf("conn-1 frames: got %d, want 1", got)
	}
	if got := len(recvFrames(t, c2)); got != 1 {
		t.Fatalf("conn-2 frames: got %d, want 1", got)
	}
}

func TestBroadcastAllExcludesUser(t *testing.T) {
	r := NewConnRegistry()
	f := NewFanoutEngine(r)

	a := newTestConn("conn-a", "U_alice")
	b := newTestConn("conn-b", "U_bob")
	r.Register(a)
	r.Register(b)

	f.BroadcastAll(EventUserOnline, &UserStatusData{UserUuid: "U_alice", Status: "online"}, "U_alice")

	if got := len(recvFrames(t, a)); got != 0 {
		t.Fatalf("excluded user should receive nothing, got %d", got)
	}
	frames := recvFrames(t, b)
	if len(frames) != 1 {
		t.Fatalf("bob frames: got %d, want 1", len(frames))
	}
	if frames[0].Event != EventUserOnline {
		t.Fatalf("event: got %s, want %s", frames[0].Event, EventUserOnline)
	}
}
