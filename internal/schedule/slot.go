// Package schedule は収集スケジュールのコアロジックを提供する。
// スロットの正規化、購読頻度に対するバリデーション、スロット単位の
// フィルタ検索、ライフサイクル管理（作成/取得/一覧/更新/削除）を含む。
package schedule

import (
	"strings"

	"github.com/photizon/photizon/internal/model"
)

// RawSlot はクライアントから受け取る未検証のスロットを表す。
// dayは整数・数値文字列・曜日名のいずれでも来るためanyで受ける
// （encoding/jsonは数値をfloat64にデコードする）。
type RawSlot struct {
	Day  any     `json:"day"`
	Time *string `json:"time"`
}

// weekdays は1=Monday起点の曜日テーブル。
var weekdays = [7]model.Weekday{
	model.Monday,
	model.Tuesday,
	model.Wednesday,
	model.Thursday,
	model.Friday,
	model.Saturday,
	model.Sunday,
}

// dayNames はフルネームと3文字略記（小文字）から正規形への唯一の変換テーブル。
// バリデータとクエリエンジンの双方がこのテーブルを共有する。
var dayNames = func() map[string]model.Weekday {
	m := make(map[string]model.Weekday, 14)
	for _, d := range weekdays {
		lower := strings.ToLower(string(d))
		m[lower] = d
		m[lower[:3]] = d
	}
	return m
}()

// NormalizeDay は曜日表現を正規形に変換する。
// 受け付ける表現: 整数1〜7（1=Monday）、数値文字列"1"〜"7"、
// 英語の曜日フルネーム、3文字略記（いずれも大文字小文字を問わない）。
func NormalizeDay(v any) (model.Weekday, bool) {
	switch day := v.(type) {
	case int:
		return dayFromNumber(day)
	case int64:
		return dayFromNumber(int(day))
	case float64:
		// JSONデコード経由の数値。非整数は不正。
		if day != float64(int(day)) {
			return "", false
		}
		return dayFromNumber(int(day))
	case string:
		// 数値文字列は"1"〜"7"の1文字のみ。符号・先頭ゼロ・空白付きは不正。
		if len(day) == 1 && day[0] >= '1' && day[0] <= '7' {
			return dayFromNumber(int(day[0] - '0'))
		}
		if d, ok := dayNames[strings.ToLower(day)]; ok {
			return d, true
		}
		return "", false
	default:
		return "", false
	}
}

// dayFromNumber は1〜7の整数を曜日に変換する。範囲外はfalseを返す。
func dayFromNumber(n int) (model.Weekday, bool) {
	if n < 1 || n > 7 {
		return "", false
	}
	return weekdays[n-1], true
}

// ParseTimeOfDay は24時間表記"HH:MM"（00:00〜23:59）を検証して返す。
// 形式が一致しない場合はfalseを返す。暗黙の補正は行わない。
func ParseTimeOfDay(s string) (string, bool) {
	if len(s) != 5 || s[2] != ':' {
		return "", false
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	if hh > 23 || mm > 59 {
		return "", false
	}
	return s, true
}

// NormalizeSlot は未検証のスロット1件を正規形に変換する。
// 副作用を持たない純粋関数。positionはエラーメッセージ用の0始まり位置。
// 正規形のスロットを再度渡した場合は同じ値が返る（冪等）。
func NormalizeSlot(position int, raw RawSlot) (model.Slot, error) {
	if raw.Day == nil {
		return model.Slot{}, model.NewMissingSlotFieldError(position, "day")
	}
	if raw.Time == nil {
		return model.Slot{}, model.NewMissingSlotFieldError(position, "time")
	}

	day, ok := NormalizeDay(raw.Day)
	if !ok {
		return model.Slot{}, model.NewInvalidSlotDayError(position, raw.Day)
	}

	t, ok := ParseTimeOfDay(*raw.Time)
	if !ok {
		return model.Slot{}, model.NewInvalidSlotTimeError(position, *raw.Time)
	}

	return model.Slot{Day: day, Time: t}, nil
}
