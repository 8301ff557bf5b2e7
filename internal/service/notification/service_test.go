package notification

import (
	"context"
	"testing"

	"nexchat_server/internal/dao/mysql/repository"
	"nexchat_server/internal/model"
	"nexchat_server/internal/service/chat"
	"nexchat_server/pkg/errorx"
)

var testCtx = context.Background()

// stubNotificationRepo 记录落库调用
type stubNotificationRepo struct {
	failCreate bool
	created    []*model.Notification
}

func (s *stubNotificationRepo) Create(n *model.Notification) error {
	if s.failCreate {
		return errorx.New(errorx.CodeDBError, "数据库不可用")
	}
	s.created = append(s.created, n)
	return nil
}
func (s *stubNotificationRepo) FindByRecipient(recipientId string, limit, offset int) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range s.created {
		if n.RecipientId == recipientId {
			out = append(out, *n)
		}
	}
	return out, nil
}
func (s *stubNotificationRepo) CountUnread(recipientId string) (int64, error) {
	var count int64
	for _, n := range s.created {
		if n.RecipientId == recipientId && !n.IsRead {
			count++
		}
	}
	return count, nil
}
func (s *stubNotificationRepo) MarkRead(uuid int64, recipientId string) error { return nil }

// stubPusher 可控的推送替身
type stubPusher struct {
	online bool
	calls  int
	event  string
	target string
}

func (s *stubPusher) SendToUser(userUuid string, event string, data any) bool {
	s.calls++
	s.event = event
	s.target = userUuid
	return s.online
}

func newNotifyFixture(online bool) (*Service, *stubNotificationRepo, *stubPusher) {
	repo := &stubNotificationRepo{}
	pusher := &stubPusher{online: online}
	svc := NewService(&repository.Repositories{Notification: repo}, pusher)
	return svc, repo, pusher
}

func TestNotifyOnlineRecipient(t *testing.T) {
	svc, repo, pusher := newNotifyFixture(true)

	uuid, err := svc.Notify(testCtx, "U_bob", "U_alice", "message", "新消息", "你好", "")
	if err != nil {
		t.Fatal(err)
	}
	if uuid == 0 {
		t.Fatal("notification uuid should be assigned")
	}
	if len(repo.created) != 1 {
		t.Fatalf("persisted: got %d, want 1", len(repo.created))
	}
	if pusher.calls != 1 || pusher.event != chat.EventNotificationNew || pusher.target != "U_bob" {
		t.Fatalf("push: calls=%d event=%s target=%s", pusher.calls, pusher.event, pusher.target)
	}
}

func TestNotifyOfflineRecipientStillSucceeds(t *testing.T) {
	svc, repo, _ := newNotifyFixture(false)

	// 接收者离线：落库成功即算成功，通知留待拉取
	uuid, err := svc.Notify(testCtx, "U_bob", "U_alice", "message", "新消息", "你好", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(repo.created) != 1 || repo.created[0].Uuid != uuid {
		t.Fatalf("persisted: %+v", repo.created)
	}

	list, err := svc.List(testCtx, "U_bob", 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != "新消息" {
		t.Fatalf("offline recipient should find stored notification, got %+v", list)
	}
	count, err := svc.UnreadCount(testCtx, "U_bob")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("unread count: got %d, want 1", count)
	}
}

func TestNotifyPersistFailure(t *testing.T) {
	svc, repo, pusher := newNotifyFixture(true)
	repo.failCreate = true

	// 落库失败整个调用失败，且不做任何推送
	if _, err := svc.Notify(testCtx, "U_bob", "U_alice", "message", "新消息", "你好", ""); err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if pusher.calls != 0 {
		t.Fatalf("pusher should not be called, got %d calls", pusher.calls)
	}
}

func TestNotifyNoDedup(t *testing.T) {
	svc, repo, _ := newNotifyFixture(false)

	// 并发/重复调用不去重，各落一条
	for i := 0; i < 3; i++ {
		if _, err := svc.Notify(testCtx, "U_bob", "U_alice", "message", "同一事件", "重复", ""); err != nil {
			t.Fatal(err)
		}
	}
	if len(repo.created) != 3 {
		t.Fatalf("persisted: got %d, want 3", len(repo.created))
	}
}
