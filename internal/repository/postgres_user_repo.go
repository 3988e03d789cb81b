package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/photizon/photizon/internal/model"
)

// psql は$1形式のプレースホルダを使うクエリビルダ。
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, phone_number, name, picture_url, zipcode, address, city, country, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.PhoneNumber, &u.Name, &u.PictureURL, &u.Zipcode,
		&u.Address, &u.City, &u.Country, &u.Role, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

// FindByPhone は電話番号でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("電話番号によるユーザーの検索に失敗しました: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成し、採番されたIDとタイムスタンプを書き戻す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (phone_number, name, picture_url, zipcode, address, city, country, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		user.PhoneNumber, user.Name, user.PictureURL, user.Zipcode,
		user.Address, user.City, user.Country, user.Role, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はユーザーのプロフィールを上書き更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = $1, picture_url = $2, zipcode = $3, address = $4, city = $5,
		     country = $6, role = $7, is_active = $8, updated_at = NOW()
		 WHERE id = $9`,
		user.Name, user.PictureURL, user.Zipcode, user.Address, user.City,
		user.Country, user.Role, user.IsActive, user.ID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	return nil
}

// List はユーザー一覧をid降順で返す。
func (r *PostgresUserRepo) List(ctx context.Context, filter UserListFilter) ([]*model.User, error) {
	builder := psql.Select(userColumns).From("users").OrderBy("id DESC")
	if filter.Role != nil {
		builder = builder.Where(sq.Eq{"role": *filter.Role})
	}
	if filter.City != "" {
		builder = builder.Where(sq.Eq{"city": filter.City})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧クエリの構築に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの読み取りに失敗しました: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

var _ UserRepository = (*PostgresUserRepo)(nil)
