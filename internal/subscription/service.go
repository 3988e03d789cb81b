// Package subscription は購読のライフサイクル（作成・更新・プラン変更・更新・停止）と
// それに伴う支払い記録の作成を提供する。
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// defaultTermDays は購読の既定の有効期間（日数）。
const defaultTermDays = 30

// defaultCurrency は支払いの既定通貨。
const defaultCurrency = "XAF"

// UpsertRequest は購読の作成・更新リクエスト（部分更新）。
// nilのフィールドは変更しない。
type UpsertRequest struct {
	Plan                  *string  `json:"plan"`
	Longitude             *float64 `json:"longitude"`
	Latitude              *float64 `json:"latitude"`
	Address               *string  `json:"address"`
	City                  *string  `json:"city"`
	Gateway               *string  `json:"gateway"`
	GatewaySubscriptionID *string  `json:"gateway_subscription_id"`
	Price                 *float64 `json:"price"`
	Currency              *string  `json:"currency"`
}

// Service は購読に関するビジネスロジックを提供する。
type Service struct {
	subRepo     repository.SubscriptionRepository
	paymentRepo repository.PaymentRepository
}

// NewService はServiceを生成する。
func NewService(subRepo repository.SubscriptionRepository, paymentRepo repository.PaymentRepository) *Service {
	return &Service{subRepo: subRepo, paymentRepo: paymentRepo}
}

// Get はクライアント自身の購読を返す。購読がない場合はNO_SUBSCRIPTION。
func (s *Service) Get(ctx context.Context, clientID int64) (*model.Subscription, error) {
	sub, err := s.subRepo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}
	if sub == nil {
		return nil, model.NewNoSubscriptionError()
	}
	return sub, nil
}

// Upsert はクライアントの購読を更新し、存在しない場合は作成する。
// 新規作成時は30日の有効期限を設定し、支払い記録を作成する。
// プラン変更時は収集頻度をプランの既定値に合わせる。
func (s *Service) Upsert(ctx context.Context, clientID int64, req UpsertRequest) (*model.Subscription, error) {
	now := time.Now()

	sub, err := s.subRepo.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}

	isNew := sub == nil
	if isNew {
		expires := now.AddDate(0, 0, defaultTermDays)
		sub = &model.Subscription{
			ClientID:  clientID,
			Plan:      model.PlanFree,
			StartedAt: now,
			ExpiresAt: &expires,
			IsActive:  true,
			Currency:  defaultCurrency,
		}
	}

	if req.Plan != nil {
		plan := model.Plan(*req.Plan)
		if !plan.IsValid() {
			return nil, model.NewInvalidFieldError("plan", "unknown plan")
		}
		sub.Plan = plan
		sub.CollectionFrequency = plan.CollectionFrequency()
	}
	if isNew && sub.CollectionFrequency == 0 {
		sub.CollectionFrequency = sub.Plan.CollectionFrequency()
	}
	if req.Longitude != nil {
		sub.Longitude = *req.Longitude
	}
	if req.Latitude != nil {
		sub.Latitude = *req.Latitude
	}
	if req.Address != nil {
		sub.Address = *req.Address
	}
	if req.City != nil {
		sub.City = *req.City
	}
	if req.Gateway != nil {
		sub.Gateway = *req.Gateway
	}
	if req.GatewaySubscriptionID != nil {
		sub.GatewaySubscriptionID = *req.GatewaySubscriptionID
	}
	if req.Price != nil {
		sub.Price = *req.Price
	}
	if req.Currency != nil {
		sub.Currency = *req.Currency
	}

	if isNew {
		if err := s.subRepo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("購読の作成に失敗しました: %w", err)
		}
		s.recordPayment(ctx, sub, sub.Price, now)
		slog.Info("subscription created",
			slog.Int64("subscription_id", sub.ID),
			slog.Int64("client_id", clientID),
			slog.String("plan", string(sub.Plan)),
		)
	} else {
		if err := s.subRepo.Update(ctx, sub); err != nil {
			return nil, fmt.Errorf("購読の更新に失敗しました: %w", err)
		}
		slog.Info("subscription updated", slog.Int64("subscription_id", sub.ID))
	}
	return sub, nil
}

// Delete はクライアント自身の購読を削除する。
// スケジュールはデータベース側でCASCADE削除される。
func (s *Service) Delete(ctx context.Context, clientID int64) error {
	sub, err := s.Get(ctx, clientID)
	if err != nil {
		return err
	}

	if err := s.subRepo.DeleteByID(ctx, sub.ID); err != nil {
		return fmt.Errorf("購読の削除に失敗しました: %w", err)
	}

	slog.Info("subscription deleted", slog.Int64("subscription_id", sub.ID))
	return nil
}

// Status は購読状態（none/active/expired）を返す。
func (s *Service) Status(ctx context.Context, clientID int64) (string, *model.Subscription, error) {
	sub, err := s.subRepo.FindByClientID(ctx, clientID)
	if err != nil {
		return "", nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}
	if sub == nil {
		return "none", nil, nil
	}
	return sub.Status(time.Now()), sub, nil
}

// ChangePlan は購読のプランを変更する。
// 有効期限は30日にリセットし、収集頻度を新プランに合わせ、支払い記録を作成する。
func (s *Service) ChangePlan(ctx context.Context, clientID int64, planName string) (*model.Subscription, error) {
	plan := model.Plan(planName)
	if !plan.IsValid() {
		return nil, model.NewInvalidFieldError("plan", "unknown plan")
	}

	sub, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expires := now.AddDate(0, 0, defaultTermDays)
	sub.Plan = plan
	sub.CollectionFrequency = plan.CollectionFrequency()
	sub.ExpiresAt = &expires
	sub.IsActive = true

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("購読の更新に失敗しました: %w", err)
	}
	s.recordPayment(ctx, sub, sub.Price, now)

	slog.Info("subscription plan changed",
		slog.Int64("subscription_id", sub.ID),
		slog.String("plan", string(plan)),
	)
	return sub, nil
}

// Toggle は購読の有効状態を反転する。
func (s *Service) Toggle(ctx context.Context, clientID int64) (*model.Subscription, error) {
	sub, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	sub.IsActive = !sub.IsActive
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("購読の更新に失敗しました: %w", err)
	}

	slog.Info("subscription toggled",
		slog.Int64("subscription_id", sub.ID),
		slog.Bool("is_active", sub.IsActive),
	)
	return sub, nil
}

// Renew は購読を指定月数だけ延長する。
// 失効済みの場合は現在時刻から起算する。支払い額は月額×月数。
func (s *Service) Renew(ctx context.Context, clientID int64, months int) (*model.Subscription, error) {
	if months <= 0 {
		return nil, model.NewInvalidFieldError("months", "must be a positive integer")
	}

	sub, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	base := now
	if sub.ExpiresAt != nil && sub.ExpiresAt.After(now) {
		base = *sub.ExpiresAt
	}
	expires := base.AddDate(0, months, 0)
	sub.ExpiresAt = &expires
	sub.IsActive = true

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("購読の更新に失敗しました: %w", err)
	}
	s.recordPayment(ctx, sub, sub.Price*float64(months), now)

	slog.Info("subscription renewed",
		slog.Int64("subscription_id", sub.ID),
		slog.Int("months", months),
	)
	return sub, nil
}

// recordPayment は購読変更に伴う支払い記録を作成する。
// 記録の失敗は購読の変更自体を巻き戻さない（ログのみ）。
func (s *Service) recordPayment(ctx context.Context, sub *model.Subscription, amount float64, paidAt time.Time) {
	currency := sub.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	p := &model.Payment{
		ClientID:              sub.ClientID,
		SubscriptionID:        &sub.ID,
		Plan:                  sub.Plan,
		Amount:                amount,
		Currency:              currency,
		Gateway:               sub.Gateway,
		GatewaySubscriptionID: sub.GatewaySubscriptionID,
		Status:                model.PaymentSuccess,
		PaidAt:                &paidAt,
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		slog.Warn("failed to record payment",
			slog.Int64("subscription_id", sub.ID),
			slog.String("error", err.Error()),
		)
	}
}
