package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/habitquest/internal/constants"
)

func TestNewHabit(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		def     HabitDefinition
		created time.Time
		wantErr bool
	}{
		{
			name: "valid tick_cross",
			def: HabitDefinition{
				Label:        "Read",
				TrackingType: constants.TrackingTickCross,
				DurationDays: 30,
			},
			created: now,
		},
		{
			name: "valid variable_amount",
			def: HabitDefinition{
				Label:        "Water",
				TrackingType: constants.TrackingVariableAmount,
				Target:       Some(8),
				Unit:         "glasses",
				DurationDays: 21,
			},
			created: now.Add(-time.Hour),
		},
		{
			name: "variable_amount without target",
			def: HabitDefinition{
				Label:        "Water",
				TrackingType: constants.TrackingVariableAmount,
				DurationDays: 21,
			},
			created: now,
			wantErr: true,
		},
		{
			name: "zero target",
			def: HabitDefinition{
				Label:        "Water",
				TrackingType: constants.TrackingVariableAmount,
				Target:       Some(0),
				DurationDays: 21,
			},
			created: now,
			wantErr: true,
		},
		{
			name: "quit with target",
			def: HabitDefinition{
				Label:        "No sugar",
				TrackingType: constants.TrackingQuit,
				Target:       Some(1),
				DurationDays: 7,
			},
			created: now,
			wantErr: true,
		},
		{
			name: "unit without target",
			def: HabitDefinition{
				Label:        "Run",
				TrackingType: constants.TrackingTickCross,
				Unit:         "km",
				DurationDays: 7,
			},
			created: now,
			wantErr: true,
		},
		{
			name: "zero duration",
			def: HabitDefinition{
				Label:        "Run",
				TrackingType: constants.TrackingTickCross,
			},
			created: now,
			wantErr: true,
		},
		{
			name: "created in the future",
			def: HabitDefinition{
				Label:        "Run",
				TrackingType: constants.TrackingTickCross,
				DurationDays: 7,
			},
			created: now.Add(time.Minute),
			wantErr: true,
		},
		{
			name: "unknown tracking type",
			def: HabitDefinition{
				Label:        "Run",
				TrackingType: "boolean",
				DurationDays: 7,
			},
			created: now,
			wantErr: true,
		},
		{
			name: "unknown cadence",
			def: HabitDefinition{
				Label:        "Run",
				TrackingType: constants.TrackingTickCross,
				Cadence:      "hourly",
				DurationDays: 7,
			},
			created: now,
			wantErr: true,
		},
		{
			name: "empty label",
			def: HabitDefinition{
				Label:        "   ",
				TrackingType: constants.TrackingTickCross,
				DurationDays: 7,
			},
			created: now,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHabit("h1", tt.def, tt.created, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewHabit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidHabit) {
				t.Errorf("NewHabit() error = %v, want wrapped ErrInvalidHabit", err)
			}
			if err == nil && h.Cadence == "" {
				t.Error("NewHabit() left cadence empty, want daily default")
			}
		})
	}
}

func TestHabit_LastQuestDay(t *testing.T) {
	h := Habit{
		CreatedAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		DurationDays: 7,
	}
	if got := h.CreatedDate(); got != "2025-01-01" {
		t.Errorf("CreatedDate() = %q, want 2025-01-01", got)
	}
	if got := h.LastQuestDay(); got != "2025-01-07" {
		t.Errorf("LastQuestDay() = %q, want 2025-01-07", got)
	}
}

func TestHabitPatch_Apply(t *testing.T) {
	h := Habit{ID: "h1", Label: "Read", DurationDays: 7, TrackingType: constants.TrackingTickCross}
	label := "  Read more  "
	days := 14
	got := HabitPatch{Label: &label, DurationDays: &days}.Apply(h)

	if got.Label != "Read more" {
		t.Errorf("Apply() label = %q, want %q", got.Label, "Read more")
	}
	if got.DurationDays != 14 {
		t.Errorf("Apply() duration = %d, want 14", got.DurationDays)
	}
	if h.Label != "Read" {
		t.Error("Apply() mutated the original habit")
	}
}

func TestHabit_MatchesLabel(t *testing.T) {
	// "é" precomposed vs. "e" + combining acute
	h := Habit{Label: "Café"}
	if !h.MatchesLabel("café") {
		t.Error("MatchesLabel() should ignore normalization form and case")
	}
	if h.MatchesLabel("cafe") {
		t.Error("MatchesLabel() matched a different label")
	}
}

func TestAmount_JSON(t *testing.T) {
	type wrapper struct {
		V Amount `json:"v"`
	}

	data, err := json.Marshal(wrapper{V: None()})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"v":null}` {
		t.Errorf("Marshal(None) = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"v":2.5}`), &w); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v, ok := w.V.Get(); !ok || v != 2.5 {
		t.Errorf("Unmarshal() = (%v, %v), want (2.5, true)", v, ok)
	}

	if err := json.Unmarshal([]byte(`{"v":null}`), &w); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if w.V.IsSome() {
		t.Error("Unmarshal(null) should yield None")
	}
}

func TestNewLog(t *testing.T) {
	tick := Habit{ID: "h1", TrackingType: constants.TrackingTickCross}
	amount := Habit{ID: "h2", TrackingType: constants.TrackingVariableAmount, Target: Some(10)}

	if _, err := NewLog(tick, "2025-01-01", true, None()); err != nil {
		t.Errorf("NewLog() tick_cross error = %v", err)
	}
	if _, err := NewLog(tick, "2025-01-01", true, Some(1)); !errors.Is(err, ErrInvalidLog) {
		t.Errorf("NewLog() tick_cross with value error = %v, want ErrInvalidLog", err)
	}
	if _, err := NewLog(amount, "2025-01-01", false, Some(4)); err != nil {
		t.Errorf("NewLog() variable_amount error = %v", err)
	}
	if _, err := NewLog(amount, "01/01/2025", false, Some(4)); !errors.Is(err, ErrInvalidLog) {
		t.Errorf("NewLog() bad date error = %v, want ErrInvalidLog", err)
	}
	if _, err := NewLog(amount, "2025-01-01", false, Some(-1)); !errors.Is(err, ErrInvalidLog) {
		t.Errorf("NewLog() negative value error = %v, want ErrInvalidLog", err)
	}
}

func TestQuestHistoryEntry_SuccessRate(t *testing.T) {
	e := QuestHistoryEntry{DaysCompleted: 2, TotalDays: 3}
	if got := e.SuccessRate(); got != 67 {
		t.Errorf("SuccessRate() = %d, want 67", got)
	}
	empty := QuestHistoryEntry{}
	if got := empty.SuccessRate(); got != 0 {
		t.Errorf("SuccessRate() on empty = %d, want 0", got)
	}
}
