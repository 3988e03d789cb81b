// Package dispatch は未送信WhatsApp通知のバックグラウンド配信を提供する。
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/photizon/photizon/internal/metrics"
	"github.com/photizon/photizon/internal/model"
	"github.com/photizon/photizon/internal/repository"
)

// MessageSender はWhatsAppメッセージの送信インターフェース。
type MessageSender interface {
	// SendMessage は電話番号にメッセージを送信し、ゲートウェイ応答を返す。
	SendMessage(ctx context.Context, phone, message string) (map[string]any, error)
}

// Dispatcher は未送信のWHATSAPPチャネル通知を定期的に取得し、並列で配信する。
// ティッカー間隔ごとに1バッチを処理し、semaphoreパターンで並列数を制御する。
type Dispatcher struct {
	notifRepo      repository.NotificationRepository
	userRepo       repository.UserRepository
	sender         MessageSender
	logger         *slog.Logger
	collector      metrics.MetricsCollector
	batchSize      int
	maxConcurrency int
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// batchSize・maxConcurrencyが0以下の場合はデフォルト値（50・5）を使用する。
func NewDispatcher(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	sender MessageSender,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	batchSize, maxConcurrency int,
) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Dispatcher{
		notifRepo:      notifRepo,
		userRepo:       userRepo,
		sender:         sender,
		logger:         logger,
		collector:      collector,
		batchSize:      batchSize,
		maxConcurrency: maxConcurrency,
	}
}

// Start はティッカーでディスパッチャを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (d *Dispatcher) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("通知ディスパッチャを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", d.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := d.RunOnce(ctx); err != nil {
		d.logger.Error("配信サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("通知ディスパッチャを停止しました")
			return
		case <-ticker.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("配信サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は未送信通知を1バッチ取得し、並列で配信する。
// 個々の配信失敗はログに記録し、通知は未送信のまま次サイクルで再試行される。
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	start := time.Now()

	notifications, err := d.notifRepo.ListUnsentWhatsApp(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(notifications) == 0 {
		return nil
	}

	d.logger.Info("配信サイクルを開始します",
		slog.Int("notification_count", len(notifications)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, d.maxConcurrency)
	var wg sync.WaitGroup

	for _, notification := range notifications {
		wg.Add(1)
		sem <- struct{}{}

		go func(n *model.Notification) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := d.dispatch(ctx, n); err != nil {
				d.logger.Error("通知の配信に失敗しました",
					slog.Int64("notification_id", n.ID),
					slog.String("error", err.Error()),
				)
			}
		}(notification)
	}

	wg.Wait()

	duration := time.Since(start)
	d.collector.RecordDispatchLatency(duration)
	d.logger.Info("配信サイクルが完了しました",
		slog.Int("notification_count", len(notifications)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return nil
}

// dispatch は通知1件を配信し、送信済みに更新する。
// 本文は仏語を既定とし、空の場合は英語にフォールバックする。
func (d *Dispatcher) dispatch(ctx context.Context, n *model.Notification) error {
	user, err := d.userRepo.FindByID(ctx, n.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		// 宛先ユーザーが削除済みの通知は送信済み扱いにして打ち切る
		return d.notifRepo.MarkSent(ctx, n.ID, time.Now(), map[string]any{"skipped": "user deleted"})
	}

	message := n.Message
	if message == "" {
		message = n.EngMessage
	}

	meta, err := d.sender.SendMessage(ctx, user.PhoneNumber, message)
	if err != nil {
		return err
	}

	if err := d.notifRepo.MarkSent(ctx, n.ID, time.Now(), meta); err != nil {
		return err
	}

	d.collector.RecordNotificationDispatched()
	return nil
}
