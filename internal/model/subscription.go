package model

import "time"

// Plan は購読プランを表す。
type Plan string

const (
	// PlanFree は無料プラン。
	PlanFree Plan = "FREE"
	// PlanStarter は基本プラン。
	PlanStarter Plan = "STARTER"
	// PlanPro は中間プラン。
	PlanPro Plan = "PRO"
	// PlanPremium はプレミアムプラン。
	PlanPremium Plan = "PREMIUM"
)

// IsValid はプランが定義済みの値かを返す。
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanStarter, PlanPro, PlanPremium:
		return true
	}
	return false
}

// CollectionFrequency はプランが要求する週あたりの収集回数を返す。
// FREE/STARTER=1、PRO=2、PREMIUM=7。
func (p Plan) CollectionFrequency() int {
	switch p {
	case PlanPro:
		return 2
	case PlanPremium:
		return 7
	default:
		return 1
	}
}

// Subscription はクライアントの購読を表す。
// クライアントにつき最大1件（client_id UNIQUE）。
type Subscription struct {
	ID                    int64
	ClientID              int64
	Plan                  Plan
	StartedAt             time.Time
	ExpiresAt             *time.Time
	IsActive              bool
	CollectionFrequency   int
	Longitude             float64
	Latitude              float64
	Address               string
	City                  string
	Gateway               string
	GatewaySubscriptionID string
	Price                 float64
	Currency              string
}

// Status は購読の現在の状態（active/expired）を返す。
// 有効期限が未設定の場合は無期限として扱う。
func (s *Subscription) Status(now time.Time) string {
	if s.IsActive && (s.ExpiresAt == nil || s.ExpiresAt.After(now)) {
		return "active"
	}
	return "expired"
}
