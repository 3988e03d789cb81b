package model

import "time"

// PaymentStatus は支払いの状態を表す。
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment は購読に紐づく支払い記録を表す。
// Planは支払い時点のプランのスナップショット（履歴参照用）。
// 購読が削除されてもSubscriptionIDをNULLにして記録は保持する。
type Payment struct {
	ID                    int64
	ClientID              int64
	SubscriptionID        *int64
	Plan                  Plan
	Amount                float64
	Currency              string
	Gateway               string
	GatewaySubscriptionID string
	Status                PaymentStatus
	PaidAt                *time.Time
	CreatedAt             time.Time
}
