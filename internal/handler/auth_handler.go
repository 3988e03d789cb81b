package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/photizon/photizon/internal/auth"
	"github.com/photizon/photizon/internal/metrics"
	"github.com/photizon/photizon/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SendOTP は電話番号にOTPを発行・送信する。
	SendOTP(ctx context.Context, phone string) (string, error)
	// VerifyOTP はOTPを検証し、ユーザーとトークンペアを返す。
	VerifyOTP(ctx context.Context, phone, code string) (*auth.VerifyResult, error)
	// Refresh はリフレッシュトークンから新しいトークンペアを発行する。
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
	}
}

// sendOTPRequest はOTP送信リクエストのボディ。
type sendOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// verifyOTPRequest はOTP検証リクエストのボディ。
type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

// refreshRequest はトークン更新リクエストのボディ。
type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// verifyOTPResponse はOTP検証成功時のレスポンス。
type verifyOTPResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	IsNewUser bool         `json:"is_new_user"`
	User      userResponse `json:"user"`
	Access    string       `json:"access"`
	Refresh   string       `json:"refresh"`
}

// SendOTP はOTPの発行・送信を処理する。
// POST /auth/send-otp
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if _, err := h.service.SendOTP(r.Context(), req.PhoneNumber); err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordOTPSent()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP sent",
	})
}

// VerifyOTP はOTPの検証とログインを処理する。
// POST /auth/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	result, err := h.service.VerifyOTP(r.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		h.collector.RecordOTPVerification(false)
		handleServiceError(w, err)
		return
	}

	h.collector.RecordOTPVerification(true)
	writeJSON(w, http.StatusOK, verifyOTPResponse{
		Success:   true,
		Message:   "login successful",
		IsNewUser: result.IsNewUser,
		User:      toUserResponse(result.User),
		Access:    result.Tokens.Access,
		Refresh:   result.Tokens.Refresh,
	})
}

// Refresh はトークンの更新を処理する。
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if req.Refresh == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("refresh"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}
