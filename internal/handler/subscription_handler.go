package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/subscription"
)

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// Get はクライアント自身の購読を返す。
	Get(ctx context.Context, clientID int64) (*model.Subscription, error)
	// Upsert は購読を作成または部分更新する。
	Upsert(ctx context.Context, clientID int64, req subscription.UpsertRequest) (*model.Subscription, error)
	// Delete は購読を削除する。
	Delete(ctx context.Context, clientID int64) error
	// Status は購読の現在の状態を返す。
	Status(ctx context.Context, clientID int64) (string, *model.Subscription, error)
	// ChangePlan はプランを変更し、有効期限をリセットする。
	ChangePlan(ctx context.Context, clientID int64, planName string) (*model.Subscription, error)
	// Toggle は購読の有効/無効を切り替える。
	Toggle(ctx context.Context, clientID int64) (*model.Subscription, error)
	// Renew は購読を指定月数だけ延長する。
	Renew(ctx context.Context, clientID int64, months int) (*model.Subscription, error)
}

// SubscriptionHandler は購読管理のHTTPハンドラー。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// changePlanRequest はプラン変更リクエストのボディ。
type changePlanRequest struct {
	Plan string `json:"plan"`
}

// renewRequest は購読延長リクエストのボディ。
type renewRequest struct {
	Months int `json:"months"`
}

// Get は自身の購読取得を処理する。
// GET /api/subscription
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	sub, err := h.service.Get(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// Upsert は購読の作成・更新を処理する。
// PUT /api/subscription
func (h *SubscriptionHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req subscription.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	sub, err := h.service.Upsert(r.Context(), actor.ID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// Delete は購読の削除を処理する。
// DELETE /api/subscription
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status は購読状態の取得を処理する。購読がない場合は"none"を返す。
// GET /api/subscription/status
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	status, sub, err := h.service.Status(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := map[string]any{"status": status}
	if sub != nil {
		body["subscription"] = toSubscriptionResponse(sub)
	}
	writeJSON(w, http.StatusOK, body)
}

// ChangePlan はプラン変更を処理する。
// POST /api/subscription/change-plan
func (h *SubscriptionHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req changePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	sub, err := h.service.ChangePlan(r.Context(), actor.ID, req.Plan)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// Toggle は購読の有効/無効の切り替えを処理する。
// POST /api/subscription/toggle
func (h *SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	sub, err := h.service.Toggle(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// Renew は購読の延長を処理する。
// POST /api/subscription/renew
func (h *SubscriptionHandler) Renew(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req renewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	sub, err := h.service.Renew(r.Context(), actor.ID, req.Months)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}
