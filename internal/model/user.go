// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す閉じた列挙。
// 動的なロール文字列の分岐は行わず、必ずこの定数セットと比較する。
type Role string

const (
	// RoleSAdmin はスーパー管理者。
	RoleSAdmin Role = "SADMIN"
	// RoleAdmin は管理者。
	RoleAdmin Role = "ADMIN"
	// RoleUser は一般クライアント（収集対象の加入者）。
	RoleUser Role = "USER"
	// RoleBouncer は現場エージェント（videur）。収集の実行と予定の担当を行う。
	RoleBouncer Role = "BOUNCER"
)

// IsValid はロールが定義済みの値かを返す。
func (r Role) IsValid() bool {
	switch r {
	case RoleSAdmin, RoleAdmin, RoleUser, RoleBouncer:
		return true
	}
	return false
}

// IsPrivileged は管理系ロール（SADMIN/ADMIN/BOUNCER）かを返す。
func (r Role) IsPrivileged() bool {
	return r == RoleSAdmin || r == RoleAdmin || r == RoleBouncer
}

// IsAdmin は管理者ロール（SADMIN/ADMIN）かを返す。
func (r Role) IsAdmin() bool {
	return r == RoleSAdmin || r == RoleAdmin
}

// User はサービス利用ユーザーを表す。
// 電話番号がログインIDとなる（パスワードは持たず、WhatsApp OTPで認証する）。
type User struct {
	ID          int64
	PhoneNumber string
	Name        string
	PictureURL  string
	Zipcode     string
	Address     string
	City        string
	Country     string
	Role        Role
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
