package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photizon/photizon/internal/metrics"
	"github.com/photizon/photizon/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector
	MetricsHandler    http.Handler

	// サービス
	AuthService         AuthServiceInterface
	UserService         UserServiceInterface
	SubscriptionService SubscriptionServiceInterface
	ScheduleService     ScheduleServiceInterface
	CollecteService     CollecteServiceInterface
	StatsService        StatsServiceInterface
	NotificationService NotificationServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Auth → RateLimit(General)
//
// 認証ルート（/auth/*）と/healthは認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	userHandler := NewUserHandler(deps.UserService)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService)
	collecteHandler := NewCollecteHandler(deps.CollecteService, deps.Collector)
	statsHandler := NewStatsHandler(deps.StatsService)
	notifHandler := NewNotificationHandler(deps.NotificationService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheusスクレイプ用エンドポイント
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証ルート（WhatsApp OTPフロー）
	r.Route("/auth", func(r chi.Router) {
		// POST /auth/send-otp - OTP送信（IP単位のレート制限を追加）
		r.With(deps.RateLimiter.OTPMiddleware()).Post("/send-otp", authHandler.SendOTP)
		r.Post("/verify-otp", authHandler.VerifyOTP)
		r.Post("/refresh", authHandler.Refresh)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Route("/me", func(r chi.Router) {
				r.Get("/", userHandler.Me)
				r.Put("/", userHandler.UpdateMe)
				r.Patch("/", userHandler.UpdateMe)
				r.Delete("/", userHandler.DeleteMe)
			})
		})

		// 購読管理
		r.Route("/api/subscription", func(r chi.Router) {
			r.Get("/", subHandler.Get)
			r.Put("/", subHandler.Upsert)
			r.Patch("/", subHandler.Upsert)
			r.Delete("/", subHandler.Delete)
			r.Get("/status", subHandler.Status)
			r.Post("/change-plan", subHandler.ChangePlan)
			r.Post("/toggle", subHandler.Toggle)
			r.Post("/renew", subHandler.Renew)
		})

		// 収集スケジュール
		r.Route("/api/schedule", func(r chi.Router) {
			r.Post("/", scheduleHandler.Create)
			r.Get("/", scheduleHandler.Get)
			r.Put("/", scheduleHandler.Update)
			r.Delete("/", scheduleHandler.Delete)
		})
		r.Get("/api/schedules", scheduleHandler.List)

		// 収集実績
		r.Route("/api/collectes", func(r chi.Router) {
			r.Post("/", collecteHandler.Create)
			r.Get("/", collecteHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", collecteHandler.Get)
				r.Put("/", collecteHandler.Update)
				r.Delete("/", collecteHandler.Delete)
			})
		})

		// 支払い・集計（管理ダッシュボード）
		r.Get("/api/payments", statsHandler.ListPayments)
		r.Get("/api/subscriptions", statsHandler.ListSubscriptions)
		r.Route("/api/stats", func(r chi.Router) {
			r.Get("/revenues", statsHandler.Revenues)
			r.Get("/subscriptions", statsHandler.Subscriptions)
		})

		// 通知
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notifHandler.List)
			r.Post("/{id}/read", notifHandler.MarkRead)
		})
	})

	return r
}
