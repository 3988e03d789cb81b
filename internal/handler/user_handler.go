package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Me は自身のプロフィールを返す。
	Me(ctx context.Context, actorID int64) (*model.User, error)
	// UpdateMe は自身のプロフィールを部分更新する。
	UpdateMe(ctx context.Context, actorID int64, req user.UpdateRequest) (*model.User, error)
	// DeleteMe は自身のアカウントを削除する。
	DeleteMe(ctx context.Context, actorID int64) error
	// List は管理者向けのユーザー一覧を返す。
	List(ctx context.Context, actor *model.User, query user.ListQuery) ([]*model.User, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// Me は自身のプロフィール取得を処理する。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	u, err := h.service.Me(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateMe は自身のプロフィール更新を処理する。
// PUT /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req user.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	u, err := h.service.UpdateMe(r.Context(), actor.ID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// DeleteMe は自身のアカウント削除を処理する。
// DELETE /api/users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMe(r.Context(), actor.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List は管理者向けのユーザー一覧を処理する。
// GET /api/users?role=&city=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	query := user.ListQuery{
		Role: r.URL.Query().Get("role"),
		City: r.URL.Query().Get("city"),
	}

	users, err := h.service.List(r.Context(), actor, query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}
