// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/photizon/photizon/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByPhone は電話番号でユーザーを検索する。見つからない場合はnilを返す。
	FindByPhone(ctx context.Context, phone string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーのプロフィールを上書き更新する。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 購読・スケジュール・通知はCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error

	// List はユーザー一覧をid降順で返す。
	List(ctx context.Context, filter UserListFilter) ([]*model.User, error)
}

// UserListFilter はユーザー一覧の絞り込み条件。nil/空は条件なし。
type UserListFilter struct {
	Role *model.Role
	City string
}

// OTPRepository はワンタイムパスワードの永続化インターフェース。
type OTPRepository interface {
	// FindByPhone は電話番号のOTP行を取得する。見つからない場合はnilを返す。
	FindByPhone(ctx context.Context, phone string) (*model.OTP, error)

	// Upsert は電話番号のOTP行を作成または上書きし、last_sent_atを更新する。
	Upsert(ctx context.Context, otp *model.OTP) error

	// DeleteByPhone は電話番号のOTP行を削除する。
	DeleteByPhone(ctx context.Context, phone string) error
}

// SubscriptionRepository は購読データの永続化インターフェース。
type SubscriptionRepository interface {
	// FindByID は指定IDの購読を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Subscription, error)

	// FindByClientID はクライアントの購読を取得する。見つからない場合はnilを返す。
	// 購読はクライアントにつき最大1件（client_id UNIQUE）。
	FindByClientID(ctx context.Context, clientID int64) (*model.Subscription, error)

	// Create は購読を作成し、採番されたIDをsub.IDに設定する。
	Create(ctx context.Context, sub *model.Subscription) error

	// Update は購読を上書き更新する。
	Update(ctx context.Context, sub *model.Subscription) error

	// DeleteByID は指定IDの購読を削除する。スケジュールはCASCADE削除される。
	DeleteByID(ctx context.Context, id int64) error

	// List は購読一覧をid降順で返す。
	List(ctx context.Context) ([]*model.Subscription, error)

	// CountByPlan はプランごとの購読数を返す。
	CountByPlan(ctx context.Context) (map[model.Plan]int, error)

	// CountActive は有効（is_active かつ未失効）な購読数を返す。
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// ScheduleRepository はスケジュールデータの永続化インターフェース。
type ScheduleRepository interface {
	// FindByID は指定IDのスケジュールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Schedule, error)

	// FindBySubscriptionID は購読のスケジュールを取得する。見つからない場合はnilを返す。
	FindBySubscriptionID(ctx context.Context, subscriptionID int64) (*model.Schedule, error)

	// Create はスケジュールを作成し、採番されたIDをs.IDに設定する。
	// subscription_idのUNIQUE制約に違反した場合はmodel.APIError
	// （SCHEDULE_ALREADY_EXISTS）を返す。並行作成の競合はこの制約で検出する。
	Create(ctx context.Context, s *model.Schedule) error

	// Update はスケジュールのスロットとvideurを上書き更新する。
	Update(ctx context.Context, s *model.Schedule) error

	// DeleteByID は指定IDのスケジュールを削除する。
	DeleteByID(ctx context.Context, id int64) error

	// List はスケジュール一覧をid降順で返す。
	List(ctx context.Context, filter ScheduleListFilter) ([]*model.Schedule, error)
}

// ScheduleListFilter はスケジュール一覧の構造的な絞り込み条件。
// スロット単位の絞り込み（曜日・時刻範囲）はクエリエンジン側で行う。
type ScheduleListFilter struct {
	// VideurID は担当videurによる絞り込み。
	VideurID *int64
	// AssignedToOrUnassigned が指定された場合、そのvideurが担当中か
	// videur未割り当てのスケジュールに限定する（BOUNCERの一覧スコープ用）。
	AssignedToOrUnassigned *int64
	// ClientID は購読の所有クライアントによる絞り込み（USERの一覧スコープ用）。
	ClientID *int64
	// City は購読の都市による絞り込み。
	City string
}

// CollecteRepository は収集実績データの永続化インターフェース。
type CollecteRepository interface {
	// FindByID は指定IDの収集実績を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Collecte, error)

	// Create は収集実績を作成し、採番されたIDをc.IDに設定する。
	Create(ctx context.Context, c *model.Collecte) error

	// Update は収集実績を上書き更新する。
	Update(ctx context.Context, c *model.Collecte) error

	// DeleteByID は指定IDの収集実績を削除する。
	DeleteByID(ctx context.Context, id int64) error

	// List は収集実績一覧をid降順で返す。
	List(ctx context.Context, filter CollecteListFilter) ([]*model.Collecte, error)
}

// CollecteListFilter は収集実績一覧の絞り込み条件。nil/空は条件なし。
type CollecteListFilter struct {
	ClientID  *int64
	VideurID  *int64
	Status    *model.CollecteStatus
	WasteType *model.WasteType
	DateFrom  *time.Time
	DateTo    *time.Time
}

// PaymentRepository は支払い記録の永続化インターフェース。
type PaymentRepository interface {
	// Create は支払い記録を作成し、採番されたIDをp.IDに設定する。
	Create(ctx context.Context, p *model.Payment) error

	// List は支払い一覧をid降順で返す。
	List(ctx context.Context) ([]*model.Payment, error)

	// RevenueByPlan は成功した支払いのプランごとの合計額を返す。
	RevenueByPlan(ctx context.Context) (map[model.Plan]float64, error)
}

// NotificationRepository は通知データの永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成し、採番されたIDをn.IDに設定する。
	Create(ctx context.Context, n *model.Notification) error

	// ListByUserID はユーザーの通知一覧をid降順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Notification, error)

	// MarkRead はユーザー自身の通知を既読にする。
	// 対象が存在しない（他ユーザーの通知を含む）場合はfalseを返す。
	MarkRead(ctx context.Context, id, userID int64) (bool, error)

	// ListUnsentWhatsApp は未送信のWHATSAPPチャネル通知を作成順に返す。
	ListUnsentWhatsApp(ctx context.Context, limit int) ([]*model.Notification, error)

	// MarkSent は通知を送信済みにし、ゲートウェイ応答をmetaに記録する。
	MarkSent(ctx context.Context, id int64, sentAt time.Time, meta map[string]any) error
}
