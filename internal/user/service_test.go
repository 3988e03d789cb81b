package user

import (
	"context"
	"errors"
	"testing"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id int64) (*model.User, error)
	updateFn     func(ctx context.Context, user *model.User) error
	deleteByIDFn func(ctx context.Context, id int64) error
	listFn       func(ctx context.Context, filter repository.UserListFilter) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}
func (m *mockUserRepo) List(ctx context.Context, filter repository.UserListFilter) ([]*model.User, error) {
	return m.listFn(ctx, filter)
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

// --- テスト ---

// TestService_Me は自身のプロフィール取得を検証する。
func TestService_Me(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Alice", Role: model.RoleUser}, nil
		},
	}
	svc := NewService(repo)

	user, err := svc.Me(context.Background(), 5)
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if user.ID != 5 || user.Name != "Alice" {
		t.Errorf("user = %+v, want ID=5 Name=Alice", user)
	}
}

// TestService_Me_NotFound はユーザーが存在しない場合にUSER_NOT_FOUNDを返すことを検証する。
func TestService_Me_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Me(context.Background(), 99)
	assertAPIError(t, err, model.ErrCodeUserNotFound)
}

// TestService_UpdateMe は部分更新で指定フィールドのみが変更されることを検証する。
func TestService_UpdateMe(t *testing.T) {
	var saved *model.User
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{
				ID:   id,
				Name: "Alice",
				City: "Douala",
				Role: model.RoleUser,
			}, nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			saved = user
			return nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.UpdateMe(context.Background(), 5, UpdateRequest{
		Name:    ptr("Bob"),
		Zipcode: ptr("00237"),
	})
	if err != nil {
		t.Fatalf("UpdateMe returned error: %v", err)
	}

	if saved == nil {
		t.Fatal("Update was not called")
	}
	if updated.Name != "Bob" {
		t.Errorf("Name = %q, want Bob", updated.Name)
	}
	if updated.Zipcode != "00237" {
		t.Errorf("Zipcode = %q, want 00237", updated.Zipcode)
	}
	// 指定しなかったフィールドは保持される
	if updated.City != "Douala" {
		t.Errorf("City = %q, want Douala (unchanged)", updated.City)
	}
	if updated.Role != model.RoleUser {
		t.Errorf("Role = %q, must not change via profile update", updated.Role)
	}
}

// TestService_DeleteMe は自身のアカウント削除を検証する。
func TestService_DeleteMe(t *testing.T) {
	var deletedID int64
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleUser}, nil
		},
		deleteByIDFn: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(repo)

	if err := svc.DeleteMe(context.Background(), 7); err != nil {
		t.Fatalf("DeleteMe returned error: %v", err)
	}
	if deletedID != 7 {
		t.Errorf("deleted id = %d, want 7", deletedID)
	}
}

// TestService_List_Forbidden は非管理者による一覧取得の拒否を検証する。
func TestService_List_Forbidden(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	for _, role := range []model.Role{model.RoleUser, model.RoleBouncer} {
		actor := &model.User{ID: 1, Role: role}
		_, err := svc.List(context.Background(), actor, ListQuery{})
		assertAPIError(t, err, model.ErrCodeForbidden)
	}
}

// TestService_List_RoleFilter はroleフィルタがリポジトリへ渡ることを検証する。
func TestService_List_RoleFilter(t *testing.T) {
	var gotFilter repository.UserListFilter
	repo := &mockUserRepo{
		listFn: func(ctx context.Context, filter repository.UserListFilter) ([]*model.User, error) {
			gotFilter = filter
			return []*model.User{{ID: 2, Role: model.RoleBouncer}}, nil
		},
	}
	svc := NewService(repo)
	actor := &model.User{ID: 1, Role: model.RoleAdmin}

	users, err := svc.List(context.Background(), actor, ListQuery{Role: "BOUNCER", City: "Douala"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}
	if gotFilter.Role == nil || *gotFilter.Role != model.RoleBouncer {
		t.Errorf("filter role = %v, want BOUNCER", gotFilter.Role)
	}
	if gotFilter.City != "Douala" {
		t.Errorf("filter city = %q, want Douala", gotFilter.City)
	}
}

// TestService_List_InvalidRole は未定義ロールのフィルタが拒否されることを検証する。
func TestService_List_InvalidRole(t *testing.T) {
	svc := NewService(&mockUserRepo{})
	actor := &model.User{ID: 1, Role: model.RoleSAdmin}

	_, err := svc.List(context.Background(), actor, ListQuery{Role: "SUPERVISOR"})
	assertAPIError(t, err, model.ErrCodeInvalidField)
}
