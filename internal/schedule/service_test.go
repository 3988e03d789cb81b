package schedule

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// --- モック ---

type mockScheduleRepo struct {
	findBySubscriptionIDFn func(ctx context.Context, subscriptionID int64) (*model.Schedule, error)
	createFn               func(ctx context.Context, s *model.Schedule) error
	updateFn               func(ctx context.Context, s *model.Schedule) error
	deleteByIDFn           func(ctx context.Context, id int64) error
	listFn                 func(ctx context.Context, filter repository.ScheduleListFilter) ([]*model.Schedule, error)
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id int64) (*model.Schedule, error) {
	return nil, nil
}
func (m *mockScheduleRepo) FindBySubscriptionID(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
	return m.findBySubscriptionIDFn(ctx, subscriptionID)
}
func (m *mockScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}
func (m *mockScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, s)
	}
	return nil
}
func (m *mockScheduleRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockScheduleRepo) List(ctx context.Context, filter repository.ScheduleListFilter) ([]*model.Schedule, error) {
	return m.listFn(ctx, filter)
}

type mockSubscriptionRepo struct {
	findByIDFn       func(ctx context.Context, id int64) (*model.Subscription, error)
	findByClientIDFn func(ctx context.Context, clientID int64) (*model.Subscription, error)
}

func (m *mockSubscriptionRepo) FindByID(ctx context.Context, id int64) (*model.Subscription, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockSubscriptionRepo) FindByClientID(ctx context.Context, clientID int64) (*model.Subscription, error) {
	if m.findByClientIDFn != nil {
		return m.findByClientIDFn(ctx, clientID)
	}
	return nil, nil
}
func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	return nil
}
func (m *mockSubscriptionRepo) Update(ctx context.Context, sub *model.Subscription) error {
	return nil
}
func (m *mockSubscriptionRepo) DeleteByID(ctx context.Context, id int64) error {
	return nil
}
func (m *mockSubscriptionRepo) List(ctx context.Context) ([]*model.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) CountByPlan(ctx context.Context) (map[model.Plan]int, error) {
	return nil, nil
}
func (m *mockSubscriptionRepo) CountActive(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
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

func ptr[T any](v T) *T { return &v }

func admin() *model.User   { return &model.User{ID: 10, Role: model.RoleAdmin} }
func bouncer() *model.User { return &model.User{ID: 20, Role: model.RoleBouncer} }
func client() *model.User  { return &model.User{ID: 30, Role: model.RoleUser} }

func proSubscription() *model.Subscription {
	return &model.Subscription{ID: 1, ClientID: 30, Plan: model.PlanPro, CollectionFrequency: 2}
}

// --- テスト ---

// TestService_Create はADMINによるスケジュール作成を検証する。
func TestService_Create(t *testing.T) {
	var created *model.Schedule
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, s *model.Schedule) error {
			s.ID = 100
			created = s
			return nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	sched, err := svc.Create(context.Background(), admin(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": "mon", "time": "08:00"}, {"day": 4, "time": "18:30"}]`),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created == nil || sched.ID != 100 {
		t.Fatal("expected schedule to be persisted")
	}
	if sched.SubscriptionID != 1 {
		t.Errorf("SubscriptionID = %d, want 1", sched.SubscriptionID)
	}
	if sched.VideurID != nil {
		t.Errorf("VideurID = %v, want nil for admin creation", *sched.VideurID)
	}
	if len(sched.Slots) != 2 || sched.Slots[0].Day != model.Monday || sched.Slots[1].Day != model.Thursday {
		t.Errorf("slots = %+v, want normalized Monday/Thursday", sched.Slots)
	}
}

// TestService_Create_BouncerSelfAssigns はBOUNCERが作成時に自分自身を
// 担当として割り当てることを検証する。
func TestService_Create_BouncerSelfAssigns(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return nil, nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleBouncer}, nil
		},
	}

	svc := NewService(schedRepo, subRepo, userRepo)

	sched, err := svc.Create(context.Background(), bouncer(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "08:00"}, {"day": 2, "time": "08:00"}]`),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if sched.VideurID == nil || *sched.VideurID != 20 {
		t.Errorf("VideurID = %v, want self-assigned 20", sched.VideurID)
	}
}

// TestService_Create_UserForbidden はUSERロールによる作成が拒否されることを
// 検証する。認可はバリデーションより先に判定される。
func TestService_Create_UserForbidden(t *testing.T) {
	svc := NewService(&mockScheduleRepo{}, &mockSubscriptionRepo{}, &mockUserRepo{})

	_, err := svc.Create(context.Background(), client(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`not even valid`),
	})
	assertAPIError(t, err, model.ErrCodeForbidden)
}

// TestService_Create_AlreadyExists は既存スケジュールがある購読への
// 2件目の作成が拒否されることを検証する。
func TestService_Create_AlreadyExists(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return &model.Schedule{ID: 100, SubscriptionID: subscriptionID}, nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	_, err := svc.Create(context.Background(), admin(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "08:00"}, {"day": 2, "time": "08:00"}]`),
	})
	assertAPIError(t, err, model.ErrCodeScheduleAlreadyExists)
}

// TestService_Create_RaceMapsToAlreadyExists は存在チェック通過後に
// UNIQUE制約違反が起きた場合もSCHEDULE_ALREADY_EXISTSになることを検証する。
func TestService_Create_RaceMapsToAlreadyExists(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, s *model.Schedule) error {
			// リポジトリはunique_violationをAPIErrorに変換して返す
			return model.NewScheduleAlreadyExistsError()
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	_, err := svc.Create(context.Background(), admin(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "08:00"}, {"day": 2, "time": "08:00"}]`),
	})
	assertAPIError(t, err, model.ErrCodeScheduleAlreadyExists)
}

// TestService_Create_SubscriptionNotFound は対象購読が存在しない場合を検証する。
func TestService_Create_SubscriptionNotFound(t *testing.T) {
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return nil, nil
		},
	}

	svc := NewService(&mockScheduleRepo{}, subRepo, &mockUserRepo{})

	_, err := svc.Create(context.Background(), admin(), MutationRequest{
		SubscriptionID: ptr(int64(99)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "08:00"}]`),
	})
	assertAPIError(t, err, model.ErrCodeSubscriptionNotFound)
}

// TestService_Create_FrequencyMismatch は購読の収集頻度に合わない
// スロット数が拒否されることを検証する。
func TestService_Create_FrequencyMismatch(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return nil, nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil // 頻度2
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	_, err := svc.Create(context.Background(), admin(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "08:00"}]`),
	})
	assertAPIError(t, err, model.ErrCodeFrequencyMismatch)
}

// TestService_Get_OwnerReads はUSERが自分の購読のスケジュールを
// 参照できることを検証する（購読はアクター自身から解決される）。
func TestService_Get_OwnerReads(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return &model.Schedule{ID: 100, SubscriptionID: subscriptionID}, nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByClientIDFn: func(ctx context.Context, clientID int64) (*model.Subscription, error) {
			if clientID != 30 {
				t.Errorf("resolved by clientID %d, want actor's own 30", clientID)
			}
			return proSubscription(), nil
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	sched, err := svc.Get(context.Background(), client(), nil, nil)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if sched.ID != 100 {
		t.Errorf("schedule ID = %d, want 100", sched.ID)
	}
}

// TestService_Get_OtherOwnerForbidden はUSERが他クライアントの購読の
// スケジュールを参照できないことを検証する。
func TestService_Get_OtherOwnerForbidden(t *testing.T) {
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			sub := proSubscription()
			sub.ClientID = 99 // 別クライアントの購読
			return sub, nil
		},
	}

	svc := NewService(&mockScheduleRepo{}, subRepo, &mockUserRepo{})

	_, err := svc.Get(context.Background(), client(), ptr(int64(1)), nil)
	assertAPIError(t, err, model.ErrCodeForbidden)
}

// TestService_Get_NotFound はスケジュール未作成の購読を検証する。
func TestService_Get_NotFound(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return nil, nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	_, err := svc.Get(context.Background(), admin(), ptr(int64(1)), nil)
	assertAPIError(t, err, model.ErrCodeScheduleNotFound)
}

// TestService_List_ScopesByRole はロールごとの一覧スコープがリポジトリの
// フィルタに反映されることを検証する。
func TestService_List_ScopesByRole(t *testing.T) {
	var gotFilter repository.ScheduleListFilter
	schedRepo := &mockScheduleRepo{
		listFn: func(ctx context.Context, filter repository.ScheduleListFilter) ([]*model.Schedule, error) {
			gotFilter = filter
			return nil, nil
		},
	}

	svc := NewService(schedRepo, &mockSubscriptionRepo{}, &mockUserRepo{})

	if _, err := svc.List(context.Background(), client(), ListQuery{}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if gotFilter.ClientID == nil || *gotFilter.ClientID != 30 {
		t.Errorf("USER list should scope to own client id, got %+v", gotFilter)
	}

	if _, err := svc.List(context.Background(), bouncer(), ListQuery{}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if gotFilter.AssignedToOrUnassigned == nil || *gotFilter.AssignedToOrUnassigned != 20 {
		t.Errorf("BOUNCER list should scope to assigned-or-unassigned, got %+v", gotFilter)
	}

	if _, err := svc.List(context.Background(), admin(), ListQuery{}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if gotFilter.ClientID != nil || gotFilter.AssignedToOrUnassigned != nil {
		t.Errorf("ADMIN list should be unscoped, got %+v", gotFilter)
	}
}

// TestService_List_AppliesSlotFilter は一覧に曜日フィルタが適用され、
// id降順の並びが保持されることを検証する。
func TestService_List_AppliesSlotFilter(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		listFn: func(ctx context.Context, filter repository.ScheduleListFilter) ([]*model.Schedule, error) {
			return []*model.Schedule{
				sched(3, model.Slot{Day: model.Monday, Time: "08:00"}),
				sched(2, model.Slot{Day: model.Friday, Time: "18:00"}),
				sched(1, model.Slot{Day: model.Monday, Time: "10:00"}),
			}, nil
		},
	}

	svc := NewService(schedRepo, &mockSubscriptionRepo{}, &mockUserRepo{})

	result, err := svc.List(context.Background(), admin(), ListQuery{Day: "monday"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(result) != 2 || result[0].ID != 3 || result[1].ID != 1 {
		t.Errorf("filtered list = %+v, want ids [3 1]", result)
	}
}

// TestService_List_InvalidDayFilter は不正な曜日フィルタ値を検証する。
func TestService_List_InvalidDayFilter(t *testing.T) {
	svc := NewService(&mockScheduleRepo{}, &mockSubscriptionRepo{}, &mockUserRepo{})

	_, err := svc.List(context.Background(), admin(), ListQuery{Day: "8"})
	assertAPIError(t, err, model.ErrCodeInvalidFilterDay)
}

// TestService_Update_RevalidatesSlots は更新時のスロット全置換が
// 頻度に対して再検証されることを検証する。
func TestService_Update_RevalidatesSlots(t *testing.T) {
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return &model.Schedule{ID: 100, SubscriptionID: subscriptionID, Slots: []model.Slot{
				{Day: model.Monday, Time: "08:00"},
				{Day: model.Tuesday, Time: "08:00"},
			}}, nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil // 頻度2
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	_, err := svc.Update(context.Background(), admin(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "09:00"}]`),
	})
	assertAPIError(t, err, model.ErrCodeFrequencyMismatch)

	updated, err := svc.Update(context.Background(), admin(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": "wed", "time": "09:00"}, {"day": "sat", "time": "11:00"}]`),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(updated.Slots) != 2 || updated.Slots[0].Day != model.Wednesday || updated.Slots[1].Day != model.Saturday {
		t.Errorf("slots = %+v, want full replacement", updated.Slots)
	}
}

// TestService_Update_BouncerAssignment はBOUNCERが未割り当てか自分担当の
// スケジュールのみ更新できることを検証する。
func TestService_Update_BouncerAssignment(t *testing.T) {
	videurID := int64(99) // 他のvideurが担当
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return &model.Schedule{ID: 100, SubscriptionID: subscriptionID, VideurID: &videurID}, nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	_, err := svc.Update(context.Background(), bouncer(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "09:00"}, {"day": 2, "time": "09:00"}]`),
	})
	assertAPIError(t, err, model.ErrCodeForbidden)

	// 未割り当てなら更新できる
	schedRepo.findBySubscriptionIDFn = func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
		return &model.Schedule{ID: 100, SubscriptionID: subscriptionID}, nil
	}
	if _, err := svc.Update(context.Background(), bouncer(), MutationRequest{
		SubscriptionID: ptr(int64(1)),
		Slots:          json.RawMessage(`[{"day": 1, "time": "09:00"}, {"day": 2, "time": "09:00"}]`),
	}); err != nil {
		t.Fatalf("Update of unassigned schedule returned error: %v", err)
	}
}

// TestService_Delete はスケジュール削除と未存在時のエラーを検証する。
func TestService_Delete(t *testing.T) {
	deleted := int64(0)
	schedRepo := &mockScheduleRepo{
		findBySubscriptionIDFn: func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
			return &model.Schedule{ID: 100, SubscriptionID: subscriptionID}, nil
		},
		deleteByIDFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	subRepo := &mockSubscriptionRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Subscription, error) {
			return proSubscription(), nil
		},
	}

	svc := NewService(schedRepo, subRepo, &mockUserRepo{})

	if err := svc.Delete(context.Background(), admin(), MutationRequest{SubscriptionID: ptr(int64(1))}); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted != 100 {
		t.Errorf("deleted id = %d, want 100", deleted)
	}

	schedRepo.findBySubscriptionIDFn = func(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
		return nil, nil
	}
	err := svc.Delete(context.Background(), admin(), MutationRequest{SubscriptionID: ptr(int64(1))})
	assertAPIError(t, err, model.ErrCodeScheduleNotFound)
}
