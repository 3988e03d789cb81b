package handler

import (
	"context"
	"net/http"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/stats"
)

// StatsServiceInterface は集計ハンドラーが必要とするサービスインターフェース。
type StatsServiceInterface interface {
	// ListPayments は支払い一覧を返す。
	ListPayments(ctx context.Context, actor *model.User) ([]*model.Payment, error)
	// ListSubscriptions は全クライアントの購読一覧を返す。
	ListSubscriptions(ctx context.Context, actor *model.User) ([]*model.Subscription, error)
	// Revenues は成功した支払いの合計額とプラン別内訳を返す。
	Revenues(ctx context.Context, actor *model.User) (*stats.Revenues, error)
	// Subscriptions は購読数のプラン別内訳と有効数を返す。
	Subscriptions(ctx context.Context, actor *model.User) (*stats.SubscriptionStats, error)
}

// StatsHandler は管理ダッシュボード向け集計のHTTPハンドラー。
type StatsHandler struct {
	service StatsServiceInterface
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(service StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: service}
}

// ListPayments は支払い一覧の取得を処理する。管理者のみ。
// GET /api/payments
func (h *StatsHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSubscriptions は購読一覧の取得を処理する。管理者のみ。
// GET /api/subscriptions
func (h *StatsHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	subs, err := h.service.ListSubscriptions(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, toSubscriptionResponse(sub))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Revenues は売上集計の取得を処理する。特権ロールのみ。
// GET /api/stats/revenues
func (h *StatsHandler) Revenues(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	revenues, err := h.service.Revenues(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, revenues)
}

// Subscriptions は購読数集計の取得を処理する。特権ロールのみ。
// GET /api/stats/subscriptions
func (h *StatsHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	subStats, err := h.service.Subscriptions(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, subStats)
}
