package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/photizon/photizon/internal/model"
)

// --- モック ---

type mockSubRepo struct {
	findByClientIDFn func(ctx context.Context, clientID int64) (*model.Subscription, error)
	createFn         func(ctx context.Context, sub *model.Subscription) error
	updateFn         func(ctx context.Context, sub *model.Subscription) error
	deleteByIDFn     func(ctx context.Context, id int64) error
}

func (m *mockSubRepo) FindByID(ctx context.Context, id int64) (*model.Subscription, error) {
	return nil, nil
}
func (m *mockSubRepo) FindByClientID(ctx context.Context, clientID int64) (*model.Subscription, error) {
	return m.findByClientIDFn(ctx, clientID)
}
func (m *mockSubRepo) Create(ctx context.Context, sub *model.Subscription) error {
	if m.createFn != nil {
		return m.createFn(ctx, sub)
	}
	return nil
}
func (m *mockSubRepo) Update(ctx context.Context, sub *model.Subscription) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, sub)
	}
	return nil
}
func (m *mockSubRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockSubRepo) List(ctx context.Context) ([]*model.Subscription, error) { return nil, nil }
func (m *mockSubRepo) CountByPlan(ctx context.Context) (map[model.Plan]int, error) {
	return nil, nil
}
func (m *mockSubRepo) CountActive(ctx context.Context, now time.Time) (int, error) { return 0, nil }

type mockPaymentRepo struct {
	createFn func(ctx context.Context, p *model.Payment) error
	payments []*model.Payment
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	m.payments = append(m.payments, p)
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}
func (m *mockPaymentRepo) List(ctx context.Context) ([]*model.Payment, error) { return nil, nil }
func (m *mockPaymentRepo) RevenueByPlan(ctx context.Context) (map[model.Plan]float64, error) {
	return nil, nil
}

func ptr[T any](v T) *T { return &v }

func assertAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %s, want %s", apiErr.Code, code)
	}
}

func noSubscription() *mockSubRepo {
	return &mockSubRepo{
		findByClientIDFn: func(ctx context.Context, clientID int64) (*model.Subscription, error) {
			return nil, nil
		},
	}
}

func existingSubscription(sub *model.Subscription) *mockSubRepo {
	return &mockSubRepo{
		findByClientIDFn: func(ctx context.Context, clientID int64) (*model.Subscription, error) {
			return sub, nil
		},
	}
}

// --- テスト ---

// TestService_Get_NoSubscription は購読がない場合にNO_SUBSCRIPTIONを返すことを検証する。
func TestService_Get_NoSubscription(t *testing.T) {
	svc := NewService(noSubscription(), &mockPaymentRepo{})

	_, err := svc.Get(context.Background(), 30)
	assertAPIError(t, err, model.ErrCodeNoSubscription)
}

// TestService_Upsert_CreatesNew は初回Upsertで購読が新規作成されることを検証する。
// FREEプラン・30日の有効期限・収集頻度1・支払い記録1件。
func TestService_Upsert_CreatesNew(t *testing.T) {
	subRepo := noSubscription()
	var created *model.Subscription
	subRepo.createFn = func(ctx context.Context, sub *model.Subscription) error {
		sub.ID = 1
		created = sub
		return nil
	}
	paymentRepo := &mockPaymentRepo{}
	svc := NewService(subRepo, paymentRepo)

	sub, err := svc.Upsert(context.Background(), 30, UpsertRequest{
		City:  ptr("Douala"),
		Price: ptr(1500.0),
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if created == nil {
		t.Fatal("Create was not called")
	}
	if sub.Plan != model.PlanFree {
		t.Errorf("Plan = %q, want FREE", sub.Plan)
	}
	if sub.CollectionFrequency != 1 {
		t.Errorf("CollectionFrequency = %d, want 1", sub.CollectionFrequency)
	}
	if !sub.IsActive {
		t.Error("new subscription should be active")
	}
	if sub.ExpiresAt == nil {
		t.Fatal("ExpiresAt should be set")
	}
	wantExpiry := time.Now().AddDate(0, 0, 30)
	if diff := sub.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("ExpiresAt = %v, want ~30 days from now", sub.ExpiresAt)
	}
	if len(paymentRepo.payments) != 1 {
		t.Fatalf("recorded %d payments, want 1", len(paymentRepo.payments))
	}
	if paymentRepo.payments[0].Amount != 1500.0 {
		t.Errorf("payment amount = %v, want 1500", paymentRepo.payments[0].Amount)
	}
}

// TestService_Upsert_PlanChangeUpdatesFrequency は既存購読のプラン変更で
// 収集頻度がプランの既定値に追従することを検証する。
func TestService_Upsert_PlanChangeUpdatesFrequency(t *testing.T) {
	sub := &model.Subscription{
		ID:                  1,
		ClientID:            30,
		Plan:                model.PlanFree,
		CollectionFrequency: 1,
		IsActive:            true,
	}
	subRepo := existingSubscription(sub)
	paymentRepo := &mockPaymentRepo{}
	svc := NewService(subRepo, paymentRepo)

	updated, err := svc.Upsert(context.Background(), 30, UpsertRequest{Plan: ptr("PREMIUM")})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if updated.Plan != model.PlanPremium {
		t.Errorf("Plan = %q, want PREMIUM", updated.Plan)
	}
	if updated.CollectionFrequency != 7 {
		t.Errorf("CollectionFrequency = %d, want 7", updated.CollectionFrequency)
	}
	// 既存購読の更新では支払い記録を作らない
	if len(paymentRepo.payments) != 0 {
		t.Errorf("recorded %d payments, want 0", len(paymentRepo.payments))
	}
}

// TestService_Upsert_InvalidPlan は未定義プランが拒否されることを検証する。
func TestService_Upsert_InvalidPlan(t *testing.T) {
	svc := NewService(noSubscription(), &mockPaymentRepo{})

	_, err := svc.Upsert(context.Background(), 30, UpsertRequest{Plan: ptr("GOLD")})
	assertAPIError(t, err, model.ErrCodeInvalidField)
}

// TestService_Delete は購読の削除を検証する。
func TestService_Delete(t *testing.T) {
	sub := &model.Subscription{ID: 4, ClientID: 30, IsActive: true}
	subRepo := existingSubscription(sub)
	var deletedID int64
	subRepo.deleteByIDFn = func(ctx context.Context, id int64) error {
		deletedID = id
		return nil
	}
	svc := NewService(subRepo, &mockPaymentRepo{})

	if err := svc.Delete(context.Background(), 30); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deletedID != 4 {
		t.Errorf("deleted id = %d, want 4", deletedID)
	}
}

// TestService_Status は購読状態の判定を検証する。
func TestService_Status(t *testing.T) {
	future := time.Now().AddDate(0, 1, 0)
	past := time.Now().AddDate(0, -1, 0)

	tests := []struct {
		name string
		sub  *model.Subscription
		want string
	}{
		{"no subscription", nil, "none"},
		{"active", &model.Subscription{IsActive: true, ExpiresAt: &future}, "active"},
		{"expired by date", &model.Subscription{IsActive: true, ExpiresAt: &past}, "expired"},
		{"deactivated", &model.Subscription{IsActive: false, ExpiresAt: &future}, "expired"},
		{"no expiry", &model.Subscription{IsActive: true}, "active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(existingSubscription(tt.sub), &mockPaymentRepo{})

			status, _, err := svc.Status(context.Background(), 30)
			if err != nil {
				t.Fatalf("Status returned error: %v", err)
			}
			if status != tt.want {
				t.Errorf("status = %q, want %q", status, tt.want)
			}
		})
	}
}

// TestService_ChangePlan はプラン変更で有効期限リセットと支払い記録を検証する。
func TestService_ChangePlan(t *testing.T) {
	past := time.Now().AddDate(0, -1, 0)
	sub := &model.Subscription{
		ID:        1,
		ClientID:  30,
		Plan:      model.PlanStarter,
		ExpiresAt: &past,
		IsActive:  false,
		Price:     5000,
		Currency:  "XAF",
	}
	subRepo := existingSubscription(sub)
	paymentRepo := &mockPaymentRepo{}
	svc := NewService(subRepo, paymentRepo)

	updated, err := svc.ChangePlan(context.Background(), 30, "PRO")
	if err != nil {
		t.Fatalf("ChangePlan returned error: %v", err)
	}

	if updated.Plan != model.PlanPro {
		t.Errorf("Plan = %q, want PRO", updated.Plan)
	}
	if updated.CollectionFrequency != 2 {
		t.Errorf("CollectionFrequency = %d, want 2", updated.CollectionFrequency)
	}
	if !updated.IsActive {
		t.Error("plan change should reactivate the subscription")
	}
	if updated.ExpiresAt == nil || !updated.ExpiresAt.After(time.Now()) {
		t.Error("ExpiresAt should be reset into the future")
	}
	if len(paymentRepo.payments) != 1 {
		t.Fatalf("recorded %d payments, want 1", len(paymentRepo.payments))
	}
	if paymentRepo.payments[0].Plan != model.PlanPro {
		t.Errorf("payment plan = %q, want PRO", paymentRepo.payments[0].Plan)
	}
}

// TestService_ChangePlan_Unknown は未定義プランへの変更が拒否されることを検証する。
func TestService_ChangePlan_Unknown(t *testing.T) {
	svc := NewService(existingSubscription(&model.Subscription{ID: 1}), &mockPaymentRepo{})

	_, err := svc.ChangePlan(context.Background(), 30, "GOLD")
	assertAPIError(t, err, model.ErrCodeInvalidField)
}

// TestService_Toggle は有効状態の反転を検証する。
func TestService_Toggle(t *testing.T) {
	sub := &model.Subscription{ID: 1, ClientID: 30, IsActive: true}
	svc := NewService(existingSubscription(sub), &mockPaymentRepo{})

	updated, err := svc.Toggle(context.Background(), 30)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if updated.IsActive {
		t.Error("IsActive should be false after toggle")
	}

	updated, err = svc.Toggle(context.Background(), 30)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if !updated.IsActive {
		t.Error("IsActive should be true after second toggle")
	}
}

// TestService_Renew は期限内の更新が現在の有効期限から起算されることと、
// 支払い額が月額×月数になることを検証する。
func TestService_Renew(t *testing.T) {
	expires := time.Now().AddDate(0, 1, 0)
	sub := &model.Subscription{
		ID:        1,
		ClientID:  30,
		Plan:      model.PlanPro,
		ExpiresAt: &expires,
		IsActive:  true,
		Price:     3000,
	}
	paymentRepo := &mockPaymentRepo{}
	svc := NewService(existingSubscription(sub), paymentRepo)

	updated, err := svc.Renew(context.Background(), 30, 3)
	if err != nil {
		t.Fatalf("Renew returned error: %v", err)
	}

	want := expires.AddDate(0, 3, 0)
	if !updated.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", updated.ExpiresAt, want)
	}
	if len(paymentRepo.payments) != 1 {
		t.Fatalf("recorded %d payments, want 1", len(paymentRepo.payments))
	}
	if paymentRepo.payments[0].Amount != 9000 {
		t.Errorf("payment amount = %v, want 9000", paymentRepo.payments[0].Amount)
	}
}

// TestService_Renew_Expired は失効済み購読の更新が現在時刻から起算されることを検証する。
func TestService_Renew_Expired(t *testing.T) {
	past := time.Now().AddDate(0, -2, 0)
	sub := &model.Subscription{ID: 1, ClientID: 30, ExpiresAt: &past, IsActive: false}
	svc := NewService(existingSubscription(sub), &mockPaymentRepo{})

	updated, err := svc.Renew(context.Background(), 30, 1)
	if err != nil {
		t.Fatalf("Renew returned error: %v", err)
	}

	wantMin := time.Now().AddDate(0, 1, 0).Add(-time.Minute)
	if !updated.ExpiresAt.After(wantMin) {
		t.Errorf("ExpiresAt = %v, should be ~1 month from now", updated.ExpiresAt)
	}
	if !updated.IsActive {
		t.Error("renewal should reactivate the subscription")
	}
}

// TestService_Renew_InvalidMonths は0以下の月数が拒否されることを検証する。
func TestService_Renew_InvalidMonths(t *testing.T) {
	svc := NewService(existingSubscription(&model.Subscription{ID: 1}), &mockPaymentRepo{})

	for _, months := range []int{0, -1} {
		_, err := svc.Renew(context.Background(), 30, months)
		assertAPIError(t, err, model.ErrCodeInvalidField)
	}
}

// TestService_PaymentFailureDoesNotRollBack は支払い記録の失敗が
// 購読の変更自体を失敗させないことを検証する。
func TestService_PaymentFailureDoesNotRollBack(t *testing.T) {
	subRepo := noSubscription()
	subRepo.createFn = func(ctx context.Context, sub *model.Subscription) error {
		sub.ID = 1
		return nil
	}
	paymentRepo := &mockPaymentRepo{
		createFn: func(ctx context.Context, p *model.Payment) error {
			return errors.New("payment store down")
		},
	}
	svc := NewService(subRepo, paymentRepo)

	sub, err := svc.Upsert(context.Background(), 30, UpsertRequest{})
	if err != nil {
		t.Fatalf("Upsert should succeed despite payment failure, got %v", err)
	}
	if sub.ID != 1 {
		t.Errorf("subscription id = %d, want 1", sub.ID)
	}
}
