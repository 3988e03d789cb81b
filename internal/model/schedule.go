package model

// Weekday は正規化済みの曜日名を表す。
// 値はNormalizeDayが返す英語のフルネーム（"Monday"〜"Sunday"）に限られる。
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Slot はスケジュール内の週1回の収集枠（曜日+時刻）を表す。
// 正規化後はイミュータブルとして扱い、同値性は(Day, Time)で判定する。
// 正規形のSlotはschedule.NormalizeSlot以外から生成しないこと。
type Slot struct {
	Day  Weekday `json:"day"`
	Time string  `json:"time"` // 24時間表記 "HH:MM"
}

// Schedule は購読に対する週次の収集予定を表す。
// 購読につき最大1件（subscription_id UNIQUE）。videurは未割り当ての場合がある。
// Slotsは同一曜日を2つ含まない（バリデータが保証する）。
type Schedule struct {
	ID             int64
	SubscriptionID int64
	VideurID       *int64
	Slots          []Slot
}
