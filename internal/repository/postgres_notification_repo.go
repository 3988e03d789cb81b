package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/photizon/photizon/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
// metaはゲートウェイ応答などの非構造データを保持するjsonbカラム。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

const notificationColumns = `id, user_id, title, message, eng_title, eng_message, type, channel,
	 is_read, sent, sent_at, meta, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*model.Notification, error) {
	n := &model.Notification{}
	var meta []byte
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.EngTitle, &n.EngMessage,
		&n.Type, &n.Channel, &n.IsRead, &n.Sent, &n.SentAt, &meta, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &n.Meta); err != nil {
			return nil, fmt.Errorf("通知メタデータのデコードに失敗しました: %w", err)
		}
	}
	return n, nil
}

// Create は通知を作成し、採番されたIDをn.IDに設定する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	meta, err := json.Marshal(n.Meta)
	if err != nil {
		return fmt.Errorf("通知メタデータのエンコードに失敗しました: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, title, message, eng_title, eng_message, type, channel,
		                            is_read, sent, sent_at, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		n.UserID, n.Title, n.Message, n.EngTitle, n.EngMessage, n.Type, n.Channel,
		n.IsRead, n.Sent, n.SentAt, meta,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("通知の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの通知一覧をid降順で返す。
func (r *PostgresNotificationRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("通知の読み取りに失敗しました: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead はユーザー自身の通知を既読にする。
// 対象が存在しない（他ユーザーの通知を含む）場合はfalseを返す。
func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return false, fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("既読化の結果確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// ListUnsentWhatsApp は未送信のWHATSAPPチャネル通知を作成順に返す。
// ディスパッチワーカーが定期的に呼び出す。
func (r *PostgresNotificationRepo) ListUnsentWhatsApp(ctx context.Context, limit int) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+`
		 FROM notifications
		 WHERE channel = $1 AND sent = FALSE
		 ORDER BY id ASC
		 LIMIT $2`,
		model.ChannelWhatsApp, limit)
	if err != nil {
		return nil, fmt.Errorf("未送信通知の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("通知の読み取りに失敗しました: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkSent は通知を送信済みにし、ゲートウェイ応答をmetaに記録する。
func (r *PostgresNotificationRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time, meta map[string]any) error {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("通知メタデータのエンコードに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE notifications SET sent = TRUE, sent_at = $1, meta = $2 WHERE id = $3`,
		sentAt, encoded, id)
	if err != nil {
		return fmt.Errorf("通知の送信済み化に失敗しました: %w", err)
	}
	return nil
}

var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
