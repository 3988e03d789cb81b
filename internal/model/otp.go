package model

import "time"

// OTP は電話番号ごとのワンタイムパスワードを表す。
// 電話番号につき1行のみ保持し、再送時は同じ行を上書きする。
type OTP struct {
	ID         int64
	Phone      string
	Code       string
	SessionID  string
	CreatedAt  time.Time
	LastSentAt time.Time
}

// IsExpired は最終送信からexpirationを超過しているかを返す。
func (o *OTP) IsExpired(expiration time.Duration, now time.Time) bool {
	return now.Sub(o.LastSentAt) > expiration
}

// CanResend は最終送信からcooldownを経過しているかを返す。
func (o *OTP) CanResend(cooldown time.Duration, now time.Time) bool {
	return now.Sub(o.LastSentAt) > cooldown
}
