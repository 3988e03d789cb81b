package schedule

import (
	"errors"
	"testing"

	"github.com/photizon/photizon/internal/model"
)

// TestNormalizeDay_Representations は曜日のすべての入力表現が同じ正規形に
// 変換されることを検証する。
func TestNormalizeDay_Representations(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  model.Weekday
	}{
		{"integer", 1, model.Monday},
		{"int64", int64(5), model.Friday},
		{"json number", float64(7), model.Sunday},
		{"numeric string", "3", model.Wednesday},
		{"full name", "Monday", model.Monday},
		{"full name lowercase", "friday", model.Friday},
		{"full name uppercase", "SUNDAY", model.Sunday},
		{"abbreviation", "Mon", model.Monday},
		{"abbreviation lowercase", "wed", model.Wednesday},
		{"abbreviation uppercase", "SAT", model.Saturday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDay(tt.input)
			if !ok {
				t.Fatalf("NormalizeDay(%v) = not ok, want %s", tt.input, tt.want)
			}
			if got != tt.want {
				t.Errorf("NormalizeDay(%v) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

// TestNormalizeDay_Invalid は解釈できない曜日表現が拒否されることを検証する。
// 数値文字列は"1"〜"7"そのもののみ有効で、符号・先頭ゼロ・前後の空白は
// 正規形への暗黙の補正になるため受け付けない。
func TestNormalizeDay_Invalid(t *testing.T) {
	inputs := []any{
		0, 8, -1, float64(1.5), true, nil,
		"8", "0", "+1", "01", " 3 ", "  3  ", " tue ", "monday2", "funday", "",
	}

	for _, input := range inputs {
		if _, ok := NormalizeDay(input); ok {
			t.Errorf("NormalizeDay(%v) = ok, want rejection", input)
		}
	}
}

// TestParseTimeOfDay は時刻の厳密な形式検査を検証する。
func TestParseTimeOfDay(t *testing.T) {
	valid := []string{"00:00", "09:30", "14:05", "23:59"}
	for _, s := range valid {
		got, ok := ParseTimeOfDay(s)
		if !ok || got != s {
			t.Errorf("ParseTimeOfDay(%q) = (%q, %v), want accepted as-is", s, got, ok)
		}
	}

	invalid := []string{"24:00", "25:00", "12:60", "9:00", "09:0", "0900", "09-00", "+9:00", "ab:cd", "", "09:00:00"}
	for _, s := range invalid {
		if _, ok := ParseTimeOfDay(s); ok {
			t.Errorf("ParseTimeOfDay(%q) = ok, want rejection", s)
		}
	}
}

// TestNormalizeSlot は単一スロットの正規化とエラーの位置情報を検証する。
func TestNormalizeSlot(t *testing.T) {
	timeStr := func(s string) *string { return &s }

	t.Run("normalizes day and keeps time", func(t *testing.T) {
		slot, err := NormalizeSlot(0, RawSlot{Day: "mon", Time: timeStr("08:30")})
		if err != nil {
			t.Fatalf("NormalizeSlot returned error: %v", err)
		}
		if slot.Day != model.Monday || slot.Time != "08:30" {
			t.Errorf("slot = %+v, want {Monday 08:30}", slot)
		}
	})

	t.Run("idempotent on canonical input", func(t *testing.T) {
		first, err := NormalizeSlot(0, RawSlot{Day: "Friday", Time: timeStr("10:00")})
		if err != nil {
			t.Fatalf("first pass returned error: %v", err)
		}
		second, err := NormalizeSlot(0, RawSlot{Day: string(first.Day), Time: &first.Time})
		if err != nil {
			t.Fatalf("second pass returned error: %v", err)
		}
		if second != first {
			t.Errorf("second pass = %+v, want %+v", second, first)
		}
	})

	t.Run("missing day", func(t *testing.T) {
		_, err := NormalizeSlot(2, RawSlot{Time: timeStr("08:30")})
		assertAPIError(t, err, model.ErrCodeMissingSlotField)
	})

	t.Run("missing time", func(t *testing.T) {
		_, err := NormalizeSlot(1, RawSlot{Day: 3})
		assertAPIError(t, err, model.ErrCodeMissingSlotField)
	})

	t.Run("invalid day string", func(t *testing.T) {
		_, err := NormalizeSlot(0, RawSlot{Day: "8", Time: timeStr("08:30")})
		assertAPIError(t, err, model.ErrCodeInvalidSlotDay)
	})

	t.Run("invalid time", func(t *testing.T) {
		_, err := NormalizeSlot(0, RawSlot{Day: 1, Time: timeStr("25:00")})
		assertAPIError(t, err, model.ErrCodeInvalidSlotTime)
	})
}

// assertAPIError はエラーが指定コードのAPIErrorであることを検証するヘルパー。
func assertAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %s, want %s", apiErr.Code, code)
	}
}
