// Package notify はユーザー向け通知の参照・既読化を提供する。
package notify

import (
	"context"
	"fmt"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// Service は通知に関するビジネスロジックを提供する。
type Service struct {
	notifRepo repository.NotificationRepository
}

// NewService はServiceを生成する。
func NewService(notifRepo repository.NotificationRepository) *Service {
	return &Service{notifRepo: notifRepo}
}

// List はアクター自身の通知一覧をid降順で返す。
func (s *Service) List(ctx context.Context, actorID int64) ([]*model.Notification, error) {
	notifications, err := s.notifRepo.ListByUserID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	return notifications, nil
}

// MarkRead はアクター自身の通知を既読にする。
// 他ユーザーの通知や存在しない通知はNOT_FOUND（存在の有無は漏らさない）。
func (s *Service) MarkRead(ctx context.Context, actorID, notificationID int64) error {
	ok, err := s.notifRepo.MarkRead(ctx, notificationID, actorID)
	if err != nil {
		return fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	if !ok {
		return model.NewNotFoundError("notification")
	}
	return nil
}
