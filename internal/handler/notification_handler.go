package handler

import (
	"context"
	"net/http"

	"github.com/photizon/photizon/internal/model"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	// List はアクター自身の通知一覧を返す。
	List(ctx context.Context, actorID int64) ([]*model.Notification, error)
	// MarkRead はアクター自身の通知を既読にする。
	MarkRead(ctx context.Context, actorID, notificationID int64) error
}

// NotificationHandler は通知のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List は自身の通知一覧の取得を処理する。
// GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	notifications, err := h.service.List(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkRead は通知の既読化を処理する。
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}

	id, ok := idFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkRead(r.Context(), actor.ID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
