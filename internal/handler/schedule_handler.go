package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/schedule"
)

// ScheduleServiceInterface はスケジュールハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	// Create はスケジュールを作成する。
	Create(ctx context.Context, actor *model.User, req schedule.MutationRequest) (*model.Schedule, error)
	// Get は対象購読のスケジュールを取得する。
	Get(ctx context.Context, actor *model.User, subscriptionID, userID *int64) (*model.Schedule, error)
	// List はスケジュール一覧をフィルタ適用して返す。
	List(ctx context.Context, actor *model.User, query schedule.ListQuery) ([]*model.Schedule, error)
	// Update はスケジュールを更新する。
	Update(ctx context.Context, actor *model.User, req schedule.MutationRequest) (*model.Schedule, error)
	// Delete はスケジュールを削除する。
	Delete(ctx context.Context, actor *model.User, req schedule.MutationRequest) error
}

// ScheduleHandler は収集スケジュールのHTTPハンドラー。
type ScheduleHandler struct {
	service ScheduleServiceInterface
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(service ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Create はスケジュールの作成を処理する。
// POST /api/schedule
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req schedule.MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	sched, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toScheduleResponse(sched))
}

// Get は対象購読のスケジュール取得を処理する。
// 対象はsubscription（購読ID）またはuser（所有クライアントID）クエリで指定し、
// 省略された場合はアクター自身の購読を対象とする。
// GET /api/schedule?subscription=&user=
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	subscriptionID, ok := optionalIDParam(w, r, "subscription")
	if !ok {
		return
	}
	userID, ok := optionalIDParam(w, r, "user")
	if !ok {
		return
	}

	sched, err := h.service.Get(r.Context(), actor, subscriptionID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

// List はスケジュール一覧の取得を処理する。
// GET /api/schedules?videur=&user=&city=&day=&time_from=&time_to=
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := schedule.ListQuery{
		Videur:   q.Get("videur"),
		User:     q.Get("user"),
		City:     q.Get("city"),
		Day:      q.Get("day"),
		TimeFrom: q.Get("time_from"),
		TimeTo:   q.Get("time_to"),
	}

	schedules, err := h.service.List(r.Context(), actor, query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]scheduleResponse, 0, len(schedules))
	for _, sched := range schedules {
		resp = append(resp, toScheduleResponse(sched))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update はスケジュールの更新を処理する。
// PUT /api/schedule
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req schedule.MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	sched, err := h.service.Update(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

// Delete はスケジュールの削除を処理する。
// DELETE /api/schedule
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	// ボディは省略可能（自身の購読を対象とする）
	var req schedule.MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.Delete(r.Context(), actor, req); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// optionalIDParam は省略可能な数値クエリパラメータを解析する。
// 解析エラー時は400を書き込み、falseを返す。
func optionalIDParam(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidFieldError(name, "must be an integer"))
		return nil, false
	}
	return &id, true
}
