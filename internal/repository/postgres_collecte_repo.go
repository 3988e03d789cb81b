package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/photizon/photizon/internal/model"
)

// PostgresCollecteRepo はPostgreSQLを使用した収集実績リポジトリ。
type PostgresCollecteRepo struct {
	db *sql.DB
}

// NewPostgresCollecteRepo はPostgresCollecteRepoを生成する。
func NewPostgresCollecteRepo(db *sql.DB) *PostgresCollecteRepo {
	return &PostgresCollecteRepo{db: db}
}

const collecteColumns = `id, client_id, videur_id, subscription_id, date, status, waste_type, weight_kg, created_at`

func scanCollecte(row interface{ Scan(...any) error }) (*model.Collecte, error) {
	c := &model.Collecte{}
	err := row.Scan(
		&c.ID, &c.ClientID, &c.VideurID, &c.SubscriptionID, &c.Date,
		&c.Status, &c.WasteType, &c.WeightKg, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDの収集実績を取得する。見つからない場合はnilを返す。
func (r *PostgresCollecteRepo) FindByID(ctx context.Context, id int64) (*model.Collecte, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+collecteColumns+` FROM collectes WHERE id = $1`, id)

	c, err := scanCollecte(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("収集実績の取得に失敗しました: %w", err)
	}
	return c, nil
}

// Create は収集実績を作成し、採番されたIDをc.IDに設定する。
func (r *PostgresCollecteRepo) Create(ctx context.Context, c *model.Collecte) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO collectes (client_id, videur_id, subscription_id, date, status, waste_type, weight_kg)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		c.ClientID, c.VideurID, c.SubscriptionID, c.Date, c.Status, c.WasteType, c.WeightKg,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("収集実績の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は収集実績を上書き更新する。
func (r *PostgresCollecteRepo) Update(ctx context.Context, c *model.Collecte) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE collectes
		 SET videur_id = $1, date = $2, status = $3, waste_type = $4, weight_kg = $5
		 WHERE id = $6`,
		c.VideurID, c.Date, c.Status, c.WasteType, c.WeightKg, c.ID,
	)
	if err != nil {
		return fmt.Errorf("収集実績の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの収集実績を削除する。
func (r *PostgresCollecteRepo) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM collectes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("収集実績の削除に失敗しました: %w", err)
	}
	return nil
}

// List は収集実績一覧をid降順で返す。
func (r *PostgresCollecteRepo) List(ctx context.Context, filter CollecteListFilter) ([]*model.Collecte, error) {
	builder := psql.Select(collecteColumns).From("collectes").OrderBy("id DESC")

	if filter.ClientID != nil {
		builder = builder.Where(sq.Eq{"client_id": *filter.ClientID})
	}
	if filter.VideurID != nil {
		builder = builder.Where(sq.Eq{"videur_id": *filter.VideurID})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.WasteType != nil {
		builder = builder.Where(sq.Eq{"waste_type": *filter.WasteType})
	}
	if filter.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		builder = builder.Where(sq.LtOrEq{"date": *filter.DateTo})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("収集実績一覧クエリの構築に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("収集実績一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var collectes []*model.Collecte
	for rows.Next() {
		c, err := scanCollecte(rows)
		if err != nil {
			return nil, fmt.Errorf("収集実績の読み取りに失敗しました: %w", err)
		}
		collectes = append(collectes, c)
	}
	return collectes, rows.Err()
}

var _ CollecteRepository = (*PostgresCollecteRepo)(nil)
