// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/photizon/photizon/internal/auth"
	"github.com/photizon/photizon/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var principalContextKey = contextKey("principal")

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.TokenManagerの部分集合として定義する。
type TokenVerifier interface {
	VerifyAccess(tokenString string) (*auth.Claims, error)
}

// UserFinder は認証済みユーザーのロードに必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無効・ユーザーが削除済み・無効化済みの場合は401を返す。
func NewAuthMiddleware(verifier TokenVerifier, userFinder UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				WriteAPIError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. アクセストークンを検証
			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. ユーザーをロード（削除・無効化済みのトークンを拒否するため毎回参照する）
			user, err := userFinder.FindByID(r.Context(), claims.UserID)
			if err != nil {
				slog.Error("認証ユーザーの取得に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil || !user.IsActive {
				WriteAPIError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過していないコンテキストではエラーを返す。
func PrincipalFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(principalContextKey).(*model.User)
	if !ok || user == nil {
		return nil, errors.New("認証済みユーザーがコンテキストに存在しません")
	}
	return user, nil
}

// WithPrincipal は認証済みユーザーを注入したコンテキストを返す。テスト用。
func WithPrincipal(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, principalContextKey, user)
}
