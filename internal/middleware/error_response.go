package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/photizon/photizon/internal/model"
)

// WriteAPIError は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// Fieldが設定されたエラーは{"<field>": ["<message>"]}、
// それ以外は{"detail": "<message>"}の形式になる。
func WriteAPIError(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	var body any
	if apiErr.Field != "" {
		body = map[string][]string{apiErr.Field: {apiErr.Message}}
	} else {
		body = map[string]string{"detail": apiErr.Message}
	}
	json.NewEncoder(w).Encode(body)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteAPIError(w, http.StatusInternalServerError, &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	})
}
