// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/photizon/photizon/internal/auth"
	"github.com/photizon/photizon/internal/collecte"
	"github.com/photizon/photizon/internal/config"
	"github.com/photizon/photizon/internal/database"
	"github.com/photizon/photizon/internal/handler"
	"github.com/photizon/photizon/internal/logger"
	"github.com/photizon/photizon/internal/metrics"
	"github.com/photizon/photizon/internal/middleware"
	"github.com/photizon/photizon/internal/notify"
	"github.com/photizon/photizon/internal/repository"
	"github.com/photizon/photizon/internal/schedule"
	"github.com/photizon/photizon/internal/stats"
	"github.com/photizon/photizon/internal/subscription"
	"github.com/photizon/photizon/internal/user"
	"github.com/photizon/photizon/internal/whatsapp"
	"github.com/photizon/photizon/internal/worker/cleanup"
	"github.com/photizon/photizon/internal/worker/dispatch"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	otpRepo := repository.NewPostgresOTPRepo(db)
	subRepo := repository.NewPostgresSubscriptionRepo(db)
	scheduleRepo := repository.NewPostgresScheduleRepo(db)
	collecteRepo := repository.NewPostgresCollecteRepo(db)
	paymentRepo := repository.NewPostgresPaymentRepo(db)
	notifRepo := repository.NewPostgresNotificationRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	whatsappClient := whatsapp.NewClient(
		&http.Client{Timeout: cfg.WhatsAppTimeout},
		slog.Default(),
		cfg.WhatsAppAPIURL,
		cfg.WhatsAppToken,
	)

	authService := auth.NewService(
		userRepo, otpRepo, notifRepo, tokens, whatsappClient,
		auth.ServiceConfig{
			OTPCooldown:   cfg.OTPCooldown,
			OTPExpiration: cfg.OTPExpiration,
			OTPLength:     cfg.OTPLength,
		},
	)

	userService := user.NewService(userRepo)
	subService := subscription.NewService(subRepo, paymentRepo)
	scheduleService := schedule.NewService(scheduleRepo, subRepo, userRepo)
	collecteService := collecte.NewService(collecteRepo, userRepo, subRepo)
	statsService := stats.NewService(paymentRepo, subRepo)
	notifService := notify.NewService(notifRepo)

	// 5. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレートはreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.OTPRate = rate.Limit(float64(cfg.RateLimitOTP) / 60.0)
	rateLimiterCfg.OTPBurst = cfg.RateLimitOTP

	deps := &handler.RouterDeps{
		TokenVerifier:     tokens,
		UserFinder:        userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		Logger:            slog.Default(),
		Collector:         collector,
		MetricsHandler:    metrics.Handler(registry),

		AuthService:         authService,
		UserService:         userService,
		SubscriptionService: subService,
		ScheduleService:     scheduleService,
		CollecteService:     collecteService,
		StatsService:        statsService,
		NotificationService: notifService,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、WhatsApp通知のディスパッチャを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	notifRepo := repository.NewPostgresNotificationRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ディスパッチャの初期化
	whatsappClient := whatsapp.NewClient(
		&http.Client{Timeout: cfg.WhatsAppTimeout},
		slog.Default(),
		cfg.WhatsAppAPIURL,
		cfg.WhatsAppToken,
	)
	dispatcher := dispatch.NewDispatcher(
		notifRepo, userRepo, whatsappClient,
		slog.Default(), collector,
		cfg.DispatchBatchSize, cfg.DispatchMaxConcurrency,
	)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("dispatch_interval", cfg.DispatchInterval),
		slog.Int("max_concurrency", cfg.DispatchMaxConcurrency),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// Prometheusスクレイプ用のHTTPサーバーをバックグラウンドで起動
	go func() {
		metricsServer := &http.Server{
			Addr:    ":" + cfg.ServerPort,
			Handler: metrics.SetupMetricsRoute(registry),
		}
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	// ディスパッチャをメインgoroutineで実行（ブロッキング）
	dispatcher.Start(ctx, cfg.DispatchInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
