// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 有効期限を過ぎたOTPと、保持期間（デフォルト90日）を超過した
// 送信済み通知を日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db                 Executor
	logger             *slog.Logger
	OTPMaxAge          time.Duration // OTP行の最大保持期間（デフォルト: 24時間）
	NotifRetentionDays int           // 送信済み通知の保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:                 db,
		logger:             logger,
		OTPMaxAge:          24 * time.Hour,
		NotifRetentionDays: 90,
	}
}

// Run は期限切れOTPと古い送信済み通知を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	otpDeleted, err := j.deleteStaleOTPs(ctx)
	if err != nil {
		return err
	}

	notifDeleted, err := j.deleteOldNotifications(ctx)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("otp_deleted", otpDeleted),
		slog.Int64("notification_deleted", notifDeleted),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteStaleOTPs は最終送信からOTPMaxAgeを超過したOTP行を削除する。
func (j *CleanupJob) deleteStaleOTPs(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-j.OTPMaxAge)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM otps WHERE last_sent_at < $1`, cutoff)
	if err != nil {
		j.logger.Error("期限切れOTPの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("期限切れOTPの削除に失敗: %w", err)
	}

	return result.RowsAffected()
}

// deleteOldNotifications は保持期間を超過した送信済み通知を削除する。
// 未送信・未読の通知は削除しない。
func (j *CleanupJob) deleteOldNotifications(ctx context.Context) (int64, error) {
	interval := fmt.Sprintf("%d days", j.NotifRetentionDays)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM notifications
		 WHERE sent = TRUE AND is_read = TRUE AND created_at < now() - $1::interval`,
		interval)
	if err != nil {
		j.logger.Error("古い通知の削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("古い通知の削除に失敗: %w", err)
	}

	return result.RowsAffected()
}
