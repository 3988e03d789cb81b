package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/photizon/photizon/internal/model"
)

// PostgresOTPRepo はPostgreSQLを使用したOTPリポジトリ。
type PostgresOTPRepo struct {
	db *sql.DB
}

// NewPostgresOTPRepo はPostgresOTPRepoを生成する。
func NewPostgresOTPRepo(db *sql.DB) *PostgresOTPRepo {
	return &PostgresOTPRepo{db: db}
}

// FindByPhone は電話番号のOTP行を取得する。見つからない場合はnilを返す。
func (r *PostgresOTPRepo) FindByPhone(ctx context.Context, phone string) (*model.OTP, error) {
	otp := &model.OTP{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, phone, code, session_id, created_at, last_sent_at
		 FROM otps WHERE phone = $1`,
		phone,
	).Scan(&otp.ID, &otp.Phone, &otp.Code, &otp.SessionID, &otp.CreatedAt, &otp.LastSentAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("OTPの取得に失敗しました: %w", err)
	}
	return otp, nil
}

// Upsert は電話番号のOTP行を作成または上書きする。
// 電話番号につき1行のみ保持する（phone UNIQUE）。
func (r *PostgresOTPRepo) Upsert(ctx context.Context, otp *model.OTP) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO otps (phone, code, session_id, last_sent_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (phone) DO UPDATE
		 SET code = EXCLUDED.code, session_id = EXCLUDED.session_id, last_sent_at = EXCLUDED.last_sent_at
		 RETURNING id, created_at`,
		otp.Phone, otp.Code, otp.SessionID, otp.LastSentAt,
	).Scan(&otp.ID, &otp.CreatedAt)
	if err != nil {
		return fmt.Errorf("OTPの保存に失敗しました: %w", err)
	}
	return nil
}

// DeleteByPhone は電話番号のOTP行を削除する。
func (r *PostgresOTPRepo) DeleteByPhone(ctx context.Context, phone string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otps WHERE phone = $1`, phone)
	if err != nil {
		return fmt.Errorf("OTPの削除に失敗しました: %w", err)
	}
	return nil
}

var _ OTPRepository = (*PostgresOTPRepo)(nil)
