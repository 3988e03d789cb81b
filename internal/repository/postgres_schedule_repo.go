package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/photizon/photizon/internal/model"
)

// pqUniqueViolation はPostgreSQLのunique_violationエラーコード。
const pqUniqueViolation = "23505"

// PostgresScheduleRepo はPostgreSQLを使用したスケジュールリポジトリ。
// スロットはjsonbカラムに正規形（[{"day": "Monday", "time": "08:00"}, ...]）で
// 格納する。
type PostgresScheduleRepo struct {
	db *sql.DB
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

func scanSchedule(row interface{ Scan(...any) error }) (*model.Schedule, error) {
	s := &model.Schedule{}
	var slots []byte
	if err := row.Scan(&s.ID, &s.SubscriptionID, &s.VideurID, &slots); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(slots, &s.Slots); err != nil {
		return nil, fmt.Errorf("スロットのデコードに失敗しました: %w", err)
	}
	return s, nil
}

// FindByID は指定IDのスケジュールを取得する。見つからない場合はnilを返す。
func (r *PostgresScheduleRepo) FindByID(ctx context.Context, id int64) (*model.Schedule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, subscription_id, videur_id, slots FROM schedules WHERE id = $1`, id)

	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	return s, nil
}

// FindBySubscriptionID は購読のスケジュールを取得する。見つからない場合はnilを返す。
func (r *PostgresScheduleRepo) FindBySubscriptionID(ctx context.Context, subscriptionID int64) (*model.Schedule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, subscription_id, videur_id, slots FROM schedules WHERE subscription_id = $1`,
		subscriptionID)

	s, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スケジュールの取得に失敗しました: %w", err)
	}
	return s, nil
}

// Create はスケジュールを作成し、採番されたIDをs.IDに設定する。
// subscription_idのUNIQUE制約違反はSCHEDULE_ALREADY_EXISTSとして返す。
// サービス層の存在チェックをすり抜けた並行作成もここで検出される。
func (r *PostgresScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	slots, err := json.Marshal(s.Slots)
	if err != nil {
		return fmt.Errorf("スロットのエンコードに失敗しました: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO schedules (subscription_id, videur_id, slots)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		s.SubscriptionID, s.VideurID, slots,
	).Scan(&s.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return model.NewScheduleAlreadyExistsError()
		}
		return fmt.Errorf("スケジュールの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はスケジュールのスロットとvideurを上書き更新する。
func (r *PostgresScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	slots, err := json.Marshal(s.Slots)
	if err != nil {
		return fmt.Errorf("スロットのエンコードに失敗しました: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE schedules SET videur_id = $1, slots = $2 WHERE id = $3`,
		s.VideurID, slots, s.ID,
	)
	if err != nil {
		return fmt.Errorf("スケジュールの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのスケジュールを削除する。
func (r *PostgresScheduleRepo) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("スケジュールの削除に失敗しました: %w", err)
	}
	return nil
}

// List はスケジュール一覧をid降順で返す。
// クライアント・都市の条件は購読との結合で解決する。
func (r *PostgresScheduleRepo) List(ctx context.Context, filter ScheduleListFilter) ([]*model.Schedule, error) {
	builder := psql.
		Select("s.id", "s.subscription_id", "s.videur_id", "s.slots").
		From("schedules s").
		Join("subscriptions sub ON sub.id = s.subscription_id").
		OrderBy("s.id DESC")

	if filter.VideurID != nil {
		builder = builder.Where(sq.Eq{"s.videur_id": *filter.VideurID})
	}
	if filter.AssignedToOrUnassigned != nil {
		builder = builder.Where(sq.Or{
			sq.Eq{"s.videur_id": *filter.AssignedToOrUnassigned},
			sq.Eq{"s.videur_id": nil},
		})
	}
	if filter.ClientID != nil {
		builder = builder.Where(sq.Eq{"sub.client_id": *filter.ClientID})
	}
	if filter.City != "" {
		builder = builder.Where(sq.Eq{"sub.city": filter.City})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("スケジュール一覧クエリの構築に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("スケジュール一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("スケジュールの読み取りに失敗しました: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
