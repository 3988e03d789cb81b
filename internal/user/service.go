// Package user はユーザープロフィールの参照・更新・削除と管理者向け一覧を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// UpdateRequest はプロフィール更新リクエスト（部分更新）。
// nilのフィールドは変更しない。
type UpdateRequest struct {
	Name       *string `json:"name"`
	PictureURL *string `json:"picture_url"`
	Zipcode    *string `json:"zipcode"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	Country    *string `json:"country"`
}

// ListQuery は管理者向けユーザー一覧の絞り込みクエリ。
type ListQuery struct {
	Role string
	City string
}

// Service はユーザーに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Me は自身のプロフィールを返す。
func (s *Service) Me(ctx context.Context, actorID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateMe は自身のプロフィールを部分更新する。
// ロールと有効状態は本人からは変更できない。
func (s *Service) UpdateMe(ctx context.Context, actorID int64, req UpdateRequest) (*model.User, error) {
	user, err := s.Me(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.PictureURL != nil {
		user.PictureURL = *req.PictureURL
	}
	if req.Zipcode != nil {
		user.Zipcode = *req.Zipcode
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.Country != nil {
		user.Country = *req.Country
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	slog.Info("user profile updated", slog.Int64("user_id", user.ID))
	return user, nil
}

// DeleteMe は自身のアカウントを削除する。
// 購読・スケジュール・通知はデータベース側でCASCADE削除される。
func (s *Service) DeleteMe(ctx context.Context, actorID int64) error {
	user, err := s.Me(ctx, actorID)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteByID(ctx, user.ID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user deleted", slog.Int64("user_id", user.ID))
	return nil
}

// List は管理者向けのユーザー一覧をid降順で返す。
// roleフィルタは定義済みロールのみ受け付ける。
func (s *Service) List(ctx context.Context, actor *model.User, query ListQuery) ([]*model.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, model.NewForbiddenError()
	}

	filter := repository.UserListFilter{City: query.City}
	if query.Role != "" {
		role := model.Role(query.Role)
		if !role.IsValid() {
			return nil, model.NewInvalidFieldError("role", "unknown role")
		}
		filter.Role = &role
	}

	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}
