package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/utils"
)

// ErrInvalidHabit is wrapped by every habit validation failure.
var ErrInvalidHabit = errors.New("invalid habit")

type Habit struct {
	ID           string                 `json:"id"`
	Label        string                 `json:"label"`
	Emoji        string                 `json:"emoji"`
	Color        string                 `json:"color"`
	TrackingType constants.TrackingType `json:"tracking_type"`
	Target       Amount                 `json:"target_amount"`
	Unit         string                 `json:"unit,omitempty"`
	Cadence      constants.Cadence      `json:"cadence"`
	DurationDays int                    `json:"duration_days"`
	CreatedAt    time.Time              `json:"created_at"`
	IsPrivate    bool                   `json:"is_private"`
}

// HabitDefinition is everything the user supplies when creating a habit.
// The repository assigns ID and CreatedAt.
type HabitDefinition struct {
	Label        string
	Emoji        string
	Color        string
	TrackingType constants.TrackingType
	Target       Amount
	Unit         string
	Cadence      constants.Cadence
	DurationDays int
	IsPrivate    bool
}

// HabitPatch holds the mutable fields of a habit. Nil fields are left alone.
// Tracking type and cadence cannot change once logs exist against them.
type HabitPatch struct {
	Label        *string
	Emoji        *string
	Color        *string
	Target       *Amount
	Unit         *string
	DurationDays *int
	IsPrivate    *bool
}

// NewHabit builds and validates a habit from a definition.
func NewHabit(id string, def HabitDefinition, createdAt, now time.Time) (Habit, error) {
	h := Habit{
		ID:           id,
		Label:        NormalizeLabel(def.Label),
		Emoji:        def.Emoji,
		Color:        def.Color,
		TrackingType: def.TrackingType,
		Target:       def.Target,
		Unit:         strings.TrimSpace(def.Unit),
		Cadence:      def.Cadence,
		DurationDays: def.DurationDays,
		CreatedAt:    createdAt,
		IsPrivate:    def.IsPrivate,
	}
	if h.Cadence == "" {
		h.Cadence = constants.CadenceDaily
	}
	if err := h.Validate(now); err != nil {
		return Habit{}, err
	}
	return h, nil
}

// Validate checks the structural invariants of a habit. now bounds CreatedAt.
func (h *Habit) Validate(now time.Time) error {
	if h.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidHabit)
	}
	if strings.TrimSpace(h.Label) == "" {
		return fmt.Errorf("%w: label cannot be empty", ErrInvalidHabit)
	}

	switch h.TrackingType {
	case constants.TrackingVariableAmount:
		target, ok := h.Target.Get()
		if !ok {
			return fmt.Errorf("%w: variable_amount habits need a target amount", ErrInvalidHabit)
		}
		if target <= 0 {
			return fmt.Errorf("%w: target amount must be positive, got %v", ErrInvalidHabit, target)
		}
	case constants.TrackingTickCross, constants.TrackingQuit:
		if h.Target.IsSome() {
			return fmt.Errorf("%w: %s habits cannot have a target amount", ErrInvalidHabit, h.TrackingType)
		}
		if h.Unit != "" {
			return fmt.Errorf("%w: unit requires a target amount", ErrInvalidHabit)
		}
	default:
		return fmt.Errorf("%w: unknown tracking type %q", ErrInvalidHabit, h.TrackingType)
	}

	switch h.EffectiveCadence() {
	case constants.CadenceDaily, constants.CadenceWeekly, constants.CadenceMonthly:
	default:
		return fmt.Errorf("%w: unknown cadence %q", ErrInvalidHabit, h.Cadence)
	}

	if h.DurationDays <= 0 {
		return fmt.Errorf("%w: duration must be at least 1 day, got %d", ErrInvalidHabit, h.DurationDays)
	}
	if h.CreatedAt.IsZero() {
		return fmt.Errorf("%w: created_at is not set", ErrInvalidHabit)
	}
	if h.CreatedAt.After(now) {
		return fmt.Errorf("%w: created_at %s is in the future", ErrInvalidHabit, h.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// EffectiveCadence treats an unset cadence as daily.
func (h *Habit) EffectiveCadence() constants.Cadence {
	if h.Cadence == "" {
		return constants.CadenceDaily
	}
	return h.Cadence
}

// CreatedDate is the civil date the habit was created on, in the creation
// instant's own location.
func (h *Habit) CreatedDate() string {
	return utils.CivilDate(h.CreatedAt)
}

// LastQuestDay is the final civil date inside the quest window.
func (h *Habit) LastQuestDay() string {
	return utils.CivilDate(h.CreatedAt.AddDate(0, 0, h.DurationDays-1))
}

// Apply returns a copy of h with the patch applied.
func (p HabitPatch) Apply(h Habit) Habit {
	if p.Label != nil {
		h.Label = NormalizeLabel(*p.Label)
	}
	if p.Emoji != nil {
		h.Emoji = *p.Emoji
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Target != nil {
		h.Target = *p.Target
	}
	if p.Unit != nil {
		h.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.DurationDays != nil {
		h.DurationDays = *p.DurationDays
	}
	if p.IsPrivate != nil {
		h.IsPrivate = *p.IsPrivate
	}
	return h
}

// NormalizeLabel trims and NFC-normalizes a label so that visually equal
// labels compare equal.
func NormalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// MatchesLabel reports whether label names this habit, ignoring case and
// Unicode normalization form.
func (h *Habit) MatchesLabel(label string) bool {
	return strings.EqualFold(norm.NFC.String(h.Label), NormalizeLabel(label))
}
