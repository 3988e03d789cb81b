package schedule

import (
	"encoding/json"

	"github.com/photizon/photizon/internal/model"
)

// ValidateSlots はslotsペイロード全体を検証し、正規化済みリストを返す。
// 作成時と更新時で同一の検証を行う（更新は常に全置換で、部分編集はない）。
//
// 検証順序:
//  1. 配列であること（INVALID_SLOTS_SHAPE）
//  2. 各要素の正規化（要素のエラーを位置付きでそのまま伝播）
//  3. 正規化後の曜日に重複がないこと（DUPLICATE_SLOT_DAY）
//  4. スロット数が購読のcollection_frequencyと一致すること（FREQUENCY_MISMATCH）。
//     frequencyが0以下（未定義）の場合はこの検査をスキップする。
//
// 返却リストは入力順を保持する。
func ValidateSlots(payload json.RawMessage, frequency int) ([]model.Slot, error) {
	var raws []RawSlot
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, model.NewInvalidSlotsShapeError()
	}
	// JSON nullはエラーなしでnilスライスにデコードされるため、ここで弾く
	if raws == nil {
		return nil, model.NewInvalidSlotsShapeError()
	}

	slots := make([]model.Slot, 0, len(raws))
	seen := make(map[model.Weekday]bool, len(raws))

	for i, raw := range raws {
		slot, err := NormalizeSlot(i, raw)
		if err != nil {
			return nil, err
		}
		if seen[slot.Day] {
			return nil, model.NewDuplicateSlotDayError(slot.Day)
		}
		seen[slot.Day] = true
		slots = append(slots, slot)
	}

	// 各スロットは週1回の収集を表すため、合計回数 = スロット数。
	if frequency > 0 && len(slots) != frequency {
		return nil, model.NewFrequencyMismatchError(frequency, len(slots))
	}

	return slots, nil
}
