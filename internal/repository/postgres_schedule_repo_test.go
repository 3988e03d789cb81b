package repository

import (
	"encoding/json"
	"testing"

	"github.com/photizon/photizon/internal/model"
)

// PostgresScheduleRepoはScheduleRepositoryインターフェースを満たすことを検証
func TestPostgresScheduleRepo_ImplementsInterface(t *testing.T) {
	var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
}

// NewPostgresScheduleRepoが正しく初期化されることを検証
func TestNewPostgresScheduleRepo_Initializes(t *testing.T) {
	repo := NewPostgresScheduleRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// スロットがjsonbカラムの格納形式と相互に変換できることを検証
func TestScheduleSlots_JSONRoundTrip(t *testing.T) {
	slots := []model.Slot{
		{Day: model.Monday, Time: "08:00"},
		{Day: model.Friday, Time: "18:30"},
	}

	encoded, err := json.Marshal(slots)
	if err != nil {
		t.Fatalf("marshal returned error: %v", err)
	}

	want := `[{"day":"Monday","time":"08:00"},{"day":"Friday","time":"18:30"}]`
	if string(encoded) != want {
		t.Errorf("encoded = %s, want %s", encoded, want)
	}

	var decoded []model.Slot
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal returned error: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != slots[0] || decoded[1] != slots[1] {
		t.Errorf("decoded = %+v, want %+v", decoded, slots)
	}
}
