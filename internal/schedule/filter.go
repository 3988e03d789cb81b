package schedule

import (
	"strings"

	"github.com/photizon/photizon/internal/model"
)

// SlotFilter はスロット単位の絞り込み条件を表す。
// すべての条件は省略可能で、省略された条件は常に一致として扱う。
type SlotFilter struct {
	day      *model.Weekday
	timeFrom string // "HH:MM"、空は下限なし
	timeTo   string // "HH:MM"、空は上限なし
}

// IsZero は条件が1つも指定されていないかを返す。
func (f *SlotFilter) IsZero() bool {
	return f.day == nil && f.timeFrom == "" && f.timeTo == ""
}

// ParseSlotFilter はクエリパラメータからSlotFilterを構築する。
// dayはスロットと同じ表現（整数/数値文字列/曜日名/略記）を受け付ける。
// 時刻はクライアントの引用符付きの値を許容するため、前後のクォートを
// 除去してから解釈する。空文字列は条件なしとして扱う。
func ParseSlotFilter(day, timeFrom, timeTo string) (*SlotFilter, error) {
	f := &SlotFilter{}

	if day != "" {
		d, ok := NormalizeDay(day)
		if !ok {
			return nil, model.NewInvalidFilterDayError(day)
		}
		f.day = &d
	}

	if v := stripQuotes(timeFrom); v != "" {
		t, ok := ParseTimeOfDay(v)
		if !ok {
			return nil, model.NewInvalidFilterTimeError("time_from", v)
		}
		f.timeFrom = t
	}

	if v := stripQuotes(timeTo); v != "" {
		t, ok := ParseTimeOfDay(v)
		if !ok {
			return nil, model.NewInvalidFilterTimeError("time_to", v)
		}
		f.timeTo = t
	}

	return f, nil
}

// Matches はスロットが全条件を満たすかを返す。
// 時刻範囲は両端を含む。"HH:MM"はゼロ埋めの固定幅なので文字列比較で足りる。
func (f *SlotFilter) Matches(slot model.Slot) bool {
	if f.day != nil && slot.Day != *f.day {
		return false
	}
	if f.timeFrom != "" && slot.Time < f.timeFrom {
		return false
	}
	if f.timeTo != "" && slot.Time > f.timeTo {
		return false
	}
	return true
}

// Apply はスケジュール群に条件を適用し、1つ以上のスロットが一致した
// スケジュールだけを返す。返却スケジュールのスロットリストは一致分のみに
// 刈り込まれる。一致スロットが0件のスケジュールは結果から除外する
// （空スロットでは返さない）。条件が空の場合は入力をそのまま返す。
// 並び順は入力（フィルタ前にid降順で確定済み）を保持し、並べ替えない。
func (f *SlotFilter) Apply(schedules []*model.Schedule) []*model.Schedule {
	if f.IsZero() {
		return schedules
	}

	result := make([]*model.Schedule, 0, len(schedules))
	for _, s := range schedules {
		var matched []model.Slot
		for _, slot := range s.Slots {
			if f.Matches(slot) {
				matched = append(matched, slot)
			}
		}
		if len(matched) == 0 {
			continue
		}
		trimmed := *s
		trimmed.Slots = matched
		result = append(result, &trimmed)
	}
	return result
}

// stripQuotes は値の前後の一重・二重引用符を除去する。
func stripQuotes(s string) string {
	return strings.Trim(s, `"'`)
}
