// Package stats は管理ダッシュボード向けの集計（売上・購読数）と支払い一覧を提供する。
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// Revenues は売上集計の結果を表す。
type Revenues struct {
	Total  float64                `json:"total"`
	ByPlan map[model.Plan]float64 `json:"by_plan"`
}

// SubscriptionStats は購読数集計の結果を表す。
type SubscriptionStats struct {
	Total  int                `json:"total"`
	Active int                `json:"active"`
	ByPlan map[model.Plan]int `json:"by_plan"`
}

// Service は管理者向け集計のビジネスロジックを提供する。
type Service struct {
	paymentRepo repository.PaymentRepository
	subRepo     repository.SubscriptionRepository
}

// NewService はServiceを生成する。
func NewService(paymentRepo repository.PaymentRepository, subRepo repository.SubscriptionRepository) *Service {
	return &Service{paymentRepo: paymentRepo, subRepo: subRepo}
}

// ListPayments は支払い一覧をid降順で返す。管理者のみ。
func (s *Service) ListPayments(ctx context.Context, actor *model.User) ([]*model.Payment, error) {
	if !actor.Role.IsAdmin() {
		return nil, model.NewForbiddenError()
	}

	payments, err := s.paymentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("支払い一覧の取得に失敗しました: %w", err)
	}
	return payments, nil
}

// ListSubscriptions は全クライアントの購読一覧をid降順で返す。管理者のみ。
func (s *Service) ListSubscriptions(ctx context.Context, actor *model.User) ([]*model.Subscription, error) {
	if !actor.Role.IsAdmin() {
		return nil, model.NewForbiddenError()
	}

	subs, err := s.subRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("購読一覧の取得に失敗しました: %w", err)
	}
	return subs, nil
}

// Revenues は成功した支払いの合計額とプラン別内訳を返す。特権ロールのみ。
func (s *Service) Revenues(ctx context.Context, actor *model.User) (*Revenues, error) {
	if !actor.Role.IsPrivileged() {
		return nil, model.NewForbiddenError()
	}

	byPlan, err := s.paymentRepo.RevenueByPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("プラン別売上の取得に失敗しました: %w", err)
	}

	total := 0.0
	for _, amount := range byPlan {
		total += amount
	}
	return &Revenues{Total: total, ByPlan: byPlan}, nil
}

// Subscriptions は購読数のプラン別内訳と有効数を返す。特権ロールのみ。
func (s *Service) Subscriptions(ctx context.Context, actor *model.User) (*SubscriptionStats, error) {
	if !actor.Role.IsPrivileged() {
		return nil, model.NewForbiddenError()
	}

	byPlan, err := s.subRepo.CountByPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("プラン別購読数の取得に失敗しました: %w", err)
	}

	active, err := s.subRepo.CountActive(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("有効購読数の取得に失敗しました: %w", err)
	}

	total := 0
	for _, count := range byPlan {
		total += count
	}
	return &SubscriptionStats{Total: total, Active: active, ByPlan: byPlan}, nil
}
