// Package handler はHTTP APIハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/photizon/photizon/internal/middleware"
	"github.com/photizon/photizon/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID          int64     `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
	PictureURL  string    `json:"picture_url"`
	Zipcode     string    `json:"zipcode"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:          user.ID,
		PhoneNumber: user.PhoneNumber,
		Name:        user.Name,
		PictureURL:  user.PictureURL,
		Zipcode:     user.Zipcode,
		Address:     user.Address,
		City:        user.City,
		Country:     user.Country,
		Role:        string(user.Role),
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

// scheduleResponse はスケジュールのAPIレスポンス。
type scheduleResponse struct {
	ID           int64        `json:"id"`
	Subscription int64        `json:"subscription"`
	Videur       *int64       `json:"videur"`
	Slots        []model.Slot `json:"slots"`
}

// toScheduleResponse はmodel.ScheduleからAPIレスポンスに変換する。
func toScheduleResponse(sched *model.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:           sched.ID,
		Subscription: sched.SubscriptionID,
		Videur:       sched.VideurID,
		Slots:        sched.Slots,
	}
}

// subscriptionResponse は購読のAPIレスポンス。
type subscriptionResponse struct {
	ID                    int64      `json:"id"`
	Client                int64      `json:"client"`
	Plan                  string     `json:"plan"`
	StartedAt             time.Time  `json:"started_at"`
	ExpiresAt             *time.Time `json:"expires_at"`
	IsActive              bool       `json:"is_active"`
	CollectionFrequency   int        `json:"collection_frequency"`
	Longitude             float64    `json:"longitude"`
	Latitude              float64    `json:"latitude"`
	Address               string     `json:"address"`
	City                  string     `json:"city"`
	Gateway               string     `json:"gateway"`
	GatewaySubscriptionID string     `json:"gateway_subscription_id"`
	Price                 float64    `json:"price"`
	Currency              string     `json:"currency"`
}

// toSubscriptionResponse はmodel.SubscriptionからAPIレスポンスに変換する。
func toSubscriptionResponse(sub *model.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:                    sub.ID,
		Client:                sub.ClientID,
		Plan:                  string(sub.Plan),
		StartedAt:             sub.StartedAt,
		ExpiresAt:             sub.ExpiresAt,
		IsActive:              sub.IsActive,
		CollectionFrequency:   sub.CollectionFrequency,
		Longitude:             sub.Longitude,
		Latitude:              sub.Latitude,
		Address:               sub.Address,
		City:                  sub.City,
		Gateway:               sub.Gateway,
		GatewaySubscriptionID: sub.GatewaySubscriptionID,
		Price:                 sub.Price,
		Currency:              sub.Currency,
	}
}

// collecteResponse は収集実績のAPIレスポンス。
type collecteResponse struct {
	ID           int64     `json:"id"`
	Client       int64     `json:"client"`
	Videur       *int64    `json:"videur"`
	Subscription int64     `json:"subscription"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	WasteType    string    `json:"waste_type"`
	WeightKg     float64   `json:"weight_kg"`
	CreatedAt    time.Time `json:"created_at"`
}

// toCollecteResponse はmodel.CollecteからAPIレスポンスに変換する。
func toCollecteResponse(c *model.Collecte) collecteResponse {
	return collecteResponse{
		ID:           c.ID,
		Client:       c.ClientID,
		Videur:       c.VideurID,
		Subscription: c.SubscriptionID,
		Date:         c.Date,
		Status:       string(c.Status),
		WasteType:    string(c.WasteType),
		WeightKg:     c.WeightKg,
		CreatedAt:    c.CreatedAt,
	}
}

// paymentResponse は支払い記録のAPIレスポンス。
type paymentResponse struct {
	ID                    int64      `json:"id"`
	Client                int64      `json:"client"`
	Subscription          *int64     `json:"subscription"`
	Plan                  string     `json:"plan"`
	Amount                float64    `json:"amount"`
	Currency              string     `json:"currency"`
	Gateway               string     `json:"gateway"`
	GatewaySubscriptionID string     `json:"gateway_subscription_id"`
	Status                string     `json:"status"`
	PaidAt                *time.Time `json:"paid_at"`
	CreatedAt             time.Time  `json:"created_at"`
}

// toPaymentResponse はmodel.PaymentからAPIレスポンスに変換する。
func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:                    p.ID,
		Client:                p.ClientID,
		Subscription:          p.SubscriptionID,
		Plan:                  string(p.Plan),
		Amount:                p.Amount,
		Currency:              p.Currency,
		Gateway:               p.Gateway,
		GatewaySubscriptionID: p.GatewaySubscriptionID,
		Status:                string(p.Status),
		PaidAt:                p.PaidAt,
		CreatedAt:             p.CreatedAt,
	}
}

// notificationResponse は通知のAPIレスポンス。
type notificationResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	EngTitle   string    `json:"eng_title"`
	EngMessage string    `json:"eng_message"`
	Type       string    `json:"type"`
	Channel    string    `json:"channel"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// toNotificationResponse はmodel.NotificationからAPIレスポンスに変換する。
func toNotificationResponse(n *model.Notification) notificationResponse {
	return notificationResponse{
		ID:         n.ID,
		Title:      n.Title,
		Message:    n.Message,
		EngTitle:   n.EngTitle,
		EngMessage: n.EngMessage,
		Type:       string(n.Type),
		Channel:    string(n.Channel),
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
	}
}

// --- ヘルパー関数 ---

// principalOrUnauthorized はリクエストコンテキストから認証済みユーザーを取得する。
// 取得できない場合は401を書き込み、falseを返す。
func principalOrUnauthorized(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := middleware.PrincipalFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil, false
	}
	return user, true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
// Fieldが設定されたエラーは{"<field>": ["<message>"]}、
// それ以外は{"detail": "<message>"}の形式になる。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	var body any
	if apiErr.Field != "" {
		body = map[string][]string{apiErr.Field: {apiErr.Message}}
	} else {
		body = map[string]string{"detail": apiErr.Message}
	}
	writeJSON(w, statusCode, body)
}

// writeInvalidBodyResponse はリクエストボディの解析失敗レスポンスを書き込む。
func writeInvalidBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:    "INVALID_REQUEST",
		Message: "invalid request body",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingSlotField,
		model.ErrCodeInvalidSlotDay,
		model.ErrCodeInvalidSlotTime,
		model.ErrCodeInvalidSlotsShape,
		model.ErrCodeDuplicateSlotDay,
		model.ErrCodeFrequencyMismatch,
		model.ErrCodeInvalidFilterDay,
		model.ErrCodeInvalidFilterTime,
		model.ErrCodeScheduleAlreadyExists,
		model.ErrCodeMissingField,
		model.ErrCodeInvalidField,
		model.ErrCodeOTPIncorrect,
		model.ErrCodeOTPExpired,
		model.ErrCodeSubscriptionRequired:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeSubscriptionNotFound,
		model.ErrCodeScheduleNotFound,
		model.ErrCodeUserNotFound,
		model.ErrCodeNotFound,
		model.ErrCodeNoSubscription:
		return http.StatusNotFound
	case model.ErrCodeOTPCooldown:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
