package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/photizon/photizon/internal/model"
)

// PostgresSubscriptionRepo はPostgreSQLを使用した購読リポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

const subscriptionColumns = `id, client_id, plan, started_at, expires_at, is_active, collection_frequency,
	 longitude, latitude, address, city, gateway, gateway_subscription_id, price, currency`

func scanSubscription(row interface{ Scan(...any) error }) (*model.Subscription, error) {
	sub := &model.Subscription{}
	err := row.Scan(
		&sub.ID, &sub.ClientID, &sub.Plan, &sub.StartedAt, &sub.ExpiresAt,
		&sub.IsActive, &sub.CollectionFrequency, &sub.Longitude, &sub.Latitude,
		&sub.Address, &sub.City, &sub.Gateway, &sub.GatewaySubscriptionID,
		&sub.Price, &sub.Currency,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// FindByID は指定IDの購読を取得する。見つからない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByID(ctx context.Context, id int64) (*model.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)

	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}
	return sub, nil
}

// FindByClientID はクライアントの購読を取得する。見つからない場合はnilを返す。
func (r *PostgresSubscriptionRepo) FindByClientID(ctx context.Context, clientID int64) (*model.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE client_id = $1`, clientID)

	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("クライアントの購読の検索に失敗しました: %w", err)
	}
	return sub, nil
}

// Create は購読を作成し、採番されたIDをsub.IDに設定する。
func (r *PostgresSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO subscriptions (client_id, plan, started_at, expires_at, is_active, collection_frequency,
		                            longitude, latitude, address, city, gateway, gateway_subscription_id, price, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		sub.ClientID, sub.Plan, sub.StartedAt, sub.ExpiresAt, sub.IsActive, sub.CollectionFrequency,
		sub.Longitude, sub.Latitude, sub.Address, sub.City, sub.Gateway, sub.GatewaySubscriptionID,
		sub.Price, sub.Currency,
	).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("購読の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は購読を上書き更新する。
func (r *PostgresSubscriptionRepo) Update(ctx context.Context, sub *model.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET plan = $1, started_at = $2, expires_at = $3, is_active = $4, collection_frequency = $5,
		     longitude = $6, latitude = $7, address = $8, city = $9,
		     gateway = $10, gateway_subscription_id = $11, price = $12, currency = $13
		 WHERE id = $14`,
		sub.Plan, sub.StartedAt, sub.ExpiresAt, sub.IsActive, sub.CollectionFrequency,
		sub.Longitude, sub.Latitude, sub.Address, sub.City,
		sub.Gateway, sub.GatewaySubscriptionID, sub.Price, sub.Currency, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("購読の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの購読を削除する。
func (r *PostgresSubscriptionRepo) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("購読の削除に失敗しました: %w", err)
	}
	return nil
}

// List は購読一覧をid降順で返す。
func (r *PostgresSubscriptionRepo) List(ctx context.Context) ([]*model.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("購読一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var subs []*model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("購読の読み取りに失敗しました: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CountByPlan はプランごとの購読数を返す。
func (r *PostgresSubscriptionRepo) CountByPlan(ctx context.Context) (map[model.Plan]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan, COUNT(*) FROM subscriptions GROUP BY plan`)
	if err != nil {
		return nil, fmt.Errorf("プラン別購読数の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Plan]int)
	for rows.Next() {
		var plan model.Plan
		var count int
		if err := rows.Scan(&plan, &count); err != nil {
			return nil, fmt.Errorf("プラン別購読数の読み取りに失敗しました: %w", err)
		}
		counts[plan] = count
	}
	return counts, rows.Err()
}

// CountActive は有効（is_activeかつ未失効）な購読数を返す。
func (r *PostgresSubscriptionRepo) CountActive(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions
		 WHERE is_active = TRUE AND (expires_at IS NULL OR expires_at > $1)`,
		now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("有効購読数の取得に失敗しました: %w", err)
	}
	return count, nil
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
