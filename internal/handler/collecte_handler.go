package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photizon/photizon/internal/collecte"
	"github.com/photizon/photizon/internal/metrics"
	"github.com/photizon/photizon/internal/model"
)

// CollecteServiceInterface は収集実績ハンドラーが必要とするサービスインターフェース。
type CollecteServiceInterface interface {
	// Create は収集実績を記録する。
	Create(ctx context.Context, actor *model.User, req collecte.CreateRequest) (*model.Collecte, error)
	// Get は収集実績を取得する。
	Get(ctx context.Context, actor *model.User, id int64) (*model.Collecte, error)
	// Update は収集実績を部分更新する。
	Update(ctx context.Context, actor *model.User, id int64, req collecte.UpdateRequest) (*model.Collecte, error)
	// Delete は収集実績を削除する。
	Delete(ctx context.Context, actor *model.User, id int64) error
	// List は収集実績一覧をフィルタ適用して返す。
	List(ctx context.Context, actor *model.User, query collecte.ListQuery) ([]*model.Collecte, error)
}

// CollecteHandler は収集実績のHTTPハンドラー。
type CollecteHandler struct {
	service   CollecteServiceInterface
	collector metrics.MetricsCollector
}

// NewCollecteHandler はCollecteHandlerを生成する。
func NewCollecteHandler(service CollecteServiceInterface, collector metrics.MetricsCollector) *CollecteHandler {
	return &CollecteHandler{
		service:   service,
		collector: collector,
	}
}

// Create は収集実績の記録を処理する。
// POST /api/collectes
func (h *CollecteHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req collecte.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	c, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordCollecte()
	writeJSON(w, http.StatusCreated, toCollecteResponse(c))
}

// Get は収集実績の取得を処理する。
// GET /api/collectes/:id
func (h *CollecteHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	id, ok := idFromURL(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollecteResponse(c))
}

// Update は収集実績の更新を処理する。
// PUT /api/collectes/:id
func (h *CollecteHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	id, ok := idFromURL(w, r)
	if !ok {
		return
	}

	var req collecte.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	c, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCollecteResponse(c))
}

// Delete は収集実績の削除を処理する。
// DELETE /api/collectes/:id
func (h *CollecteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	id, ok := idFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List は収集実績一覧の取得を処理する。
// GET /api/collectes?client=&videur=&status=&waste_type=&date_from=&date_to=
func (h *CollecteHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := collecte.ListQuery{
		Client:    q.Get("client"),
		Videur:    q.Get("videur"),
		Status:    q.Get("status"),
		WasteType: q.Get("waste_type"),
		DateFrom:  q.Get("date_from"),
		DateTo:    q.Get("date_to"),
	}

	collectes, err := h.service.List(r.Context(), actor, query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]collecteResponse, 0, len(collectes))
	for _, c := range collectes {
		resp = append(resp, toCollecteResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// idFromURL はURLパスのidパラメータを解析する。
// 解析エラー時は404を書き込み、falseを返す。
func idFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("resource"))
		return 0, false
	}
	return id, true
}
