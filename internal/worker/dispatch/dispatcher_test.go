package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/photizon/photizon/internal/metrics"
	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// --- モック ---

type mockNotifRepo struct {
	mu           sync.Mutex
	unsent       []*model.Notification
	sentIDs      []int64
	sentMeta     map[int64]map[string]any
	listUnsentFn func(ctx context.Context, limit int) ([]*model.Notification, error)
}

func (m *mockNotifRepo) Create(ctx context.Context, n *model.Notification) error { return nil }
func (m *mockNotifRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Notification, error) {
	return nil, nil
}
func (m *mockNotifRepo) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	return false, nil
}
func (m *mockNotifRepo) ListUnsentWhatsApp(ctx context.Context, limit int) ([]*model.Notification, error) {
	if m.listUnsentFn != nil {
		return m.listUnsentFn(ctx, limit)
	}
	return m.unsent, nil
}
func (m *mockNotifRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time, meta map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentIDs = append(m.sentIDs, id)
	if m.sentMeta == nil {
		m.sentMeta = make(map[int64]map[string]any)
	}
	m.sentMeta[id] = meta
	return nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error  { return nil }
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) DeleteByID(ctx context.Context, id int64) error     { return nil }
func (m *mockUserRepo) List(ctx context.Context, filter repository.UserListFilter) ([]*model.User, error) {
	return nil, nil
}

type mockSender struct {
	mu     sync.Mutex
	sent   []string
	sendFn func(ctx context.Context, phone, message string) (map[string]any, error)
}

func (m *mockSender) SendMessage(ctx context.Context, phone, message string) (map[string]any, error) {
	m.mu.Lock()
	m.sent = append(m.sent, message)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, phone, message)
	}
	return map[string]any{"status": "sent"}, nil
}

func testLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

// --- テスト ---

// TestDispatcher_RunOnce は未送信通知の配信と送信済み更新を検証する。
func TestDispatcher_RunOnce(t *testing.T) {
	notifRepo := &mockNotifRepo{
		unsent: []*model.Notification{
			{ID: 1, UserID: 10, Message: "message fr", Channel: model.ChannelWhatsApp},
			{ID: 2, UserID: 11, Message: "autre message", Channel: model.ChannelWhatsApp},
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PhoneNumber: "+336000000"}, nil
		},
	}
	sender := &mockSender{}

	d := NewDispatcher(notifRepo, userRepo, sender, testLogger(), metrics.Noop{}, 50, 5)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(notifRepo.sentIDs) != 2 {
		t.Fatalf("marked sent %d notifications, want 2", len(notifRepo.sentIDs))
	}
	if meta := notifRepo.sentMeta[1]; meta["status"] != "sent" {
		t.Errorf("meta = %+v, want gateway response recorded", meta)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d messages, want 2", len(sender.sent))
	}
}

// TestDispatcher_RunOnce_SendFailureLeavesUnsent は送信失敗時に通知が
// 未送信のまま残ることを検証する（次サイクルで再試行される）。
func TestDispatcher_RunOnce_SendFailureLeavesUnsent(t *testing.T) {
	notifRepo := &mockNotifRepo{
		unsent: []*model.Notification{
			{ID: 1, UserID: 10, Message: "m", Channel: model.ChannelWhatsApp},
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PhoneNumber: "+336000000"}, nil
		},
	}
	sender := &mockSender{
		sendFn: func(ctx context.Context, phone, message string) (map[string]any, error) {
			return nil, errors.New("gateway down")
		},
	}

	d := NewDispatcher(notifRepo, userRepo, sender, testLogger(), metrics.Noop{}, 50, 5)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(notifRepo.sentIDs) != 0 {
		t.Errorf("failed notification should not be marked sent, got %v", notifRepo.sentIDs)
	}
}

// TestDispatcher_RunOnce_DeletedUserSkips は宛先ユーザーが削除済みの通知を
// 送信せず送信済み扱いにすることを検証する。
func TestDispatcher_RunOnce_DeletedUserSkips(t *testing.T) {
	notifRepo := &mockNotifRepo{
		unsent: []*model.Notification{
			{ID: 5, UserID: 99, Message: "m", Channel: model.ChannelWhatsApp},
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	sender := &mockSender{}

	d := NewDispatcher(notifRepo, userRepo, sender, testLogger(), metrics.Noop{}, 50, 5)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("no message should be sent for a deleted user")
	}
	if len(notifRepo.sentIDs) != 1 || notifRepo.sentIDs[0] != 5 {
		t.Errorf("notification should be closed out, got %v", notifRepo.sentIDs)
	}
}

// TestDispatcher_RunOnce_FallsBackToEnglish は仏語本文が空のとき英語に
// フォールバックすることを検証する。
func TestDispatcher_RunOnce_FallsBackToEnglish(t *testing.T) {
	notifRepo := &mockNotifRepo{
		unsent: []*model.Notification{
			{ID: 1, UserID: 10, Message: "", EngMessage: "english body", Channel: model.ChannelWhatsApp},
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PhoneNumber: "+336000000"}, nil
		},
	}
	sender := &mockSender{}

	d := NewDispatcher(notifRepo, userRepo, sender, testLogger(), metrics.Noop{}, 50, 5)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "english body" {
		t.Errorf("sent = %v, want english fallback", sender.sent)
	}
}
