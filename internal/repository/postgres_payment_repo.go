package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/photizon/photizon/internal/model"
)

// PostgresPaymentRepo はPostgreSQLを使用した支払いリポジトリ。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

// Create は支払い記録を作成し、採番されたIDをp.IDに設定する。
func (r *PostgresPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO payments (client_id, subscription_id, plan, amount, currency, gateway,
		                       gateway_subscription_id, status, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		p.ClientID, p.SubscriptionID, p.Plan, p.Amount, p.Currency, p.Gateway,
		p.GatewaySubscriptionID, p.Status, p.PaidAt,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("支払い記録の作成に失敗しました: %w", err)
	}
	return nil
}

// List は支払い一覧をid降順で返す。
func (r *PostgresPaymentRepo) List(ctx context.Context) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_id, subscription_id, plan, amount, currency, gateway,
		        gateway_subscription_id, status, paid_at, created_at
		 FROM payments ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("支払い一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		p := &model.Payment{}
		err := rows.Scan(
			&p.ID, &p.ClientID, &p.SubscriptionID, &p.Plan, &p.Amount, &p.Currency,
			&p.Gateway, &p.GatewaySubscriptionID, &p.Status, &p.PaidAt, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("支払いの読み取りに失敗しました: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// RevenueByPlan は成功した支払いのプランごとの合計額を返す。
func (r *PostgresPaymentRepo) RevenueByPlan(ctx context.Context) (map[model.Plan]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan, COALESCE(SUM(amount), 0)
		 FROM payments WHERE status = $1 GROUP BY plan`,
		model.PaymentSuccess)
	if err != nil {
		return nil, fmt.Errorf("プラン別売上の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	revenue := make(map[model.Plan]float64)
	for rows.Next() {
		var plan model.Plan
		var amount float64
		if err := rows.Scan(&plan, &amount); err != nil {
			return nil, fmt.Errorf("プラン別売上の読み取りに失敗しました: %w", err)
		}
		revenue[plan] = amount
	}
	return revenue, rows.Err()
}

var _ PaymentRepository = (*PostgresPaymentRepo)(nil)
