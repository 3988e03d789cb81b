package model

import "time"

// CollecteStatus は収集実績の状態を表す。
type CollecteStatus string

const (
	CollecteScheduled  CollecteStatus = "scheduled"
	CollecteInProgress CollecteStatus = "in_progress"
	CollecteCompleted  CollecteStatus = "completed"
	CollecteMissed     CollecteStatus = "missed"
)

// IsValid はステータスが定義済みの値かを返す。
func (s CollecteStatus) IsValid() bool {
	switch s {
	case CollecteScheduled, CollecteInProgress, CollecteCompleted, CollecteMissed:
		return true
	}
	return false
}

// WasteType は収集対象の廃棄物種別を表す。
type WasteType string

const (
	WasteOrganic WasteType = "organic"
	WastePlastic WasteType = "plastic"
	WastePaper   WasteType = "paper"
	WasteMixed   WasteType = "mixed"
)

// IsValid は廃棄物種別が定義済みの値かを返す。
func (w WasteType) IsValid() bool {
	switch w {
	case WasteOrganic, WastePlastic, WastePaper, WasteMixed:
		return true
	}
	return false
}

// Collecte は実行された（または予定された）収集1回分の記録を表す。
// videurはユーザー削除時にNULLになる（記録自体は保持する）。
type Collecte struct {
	ID             int64
	ClientID       int64
	VideurID       *int64
	SubscriptionID int64
	Date           time.Time
	Status         CollecteStatus
	WasteType      WasteType
	WeightKg       float64
	CreatedAt      time.Time
}
