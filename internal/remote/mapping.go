package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
)

// ErrUnmappable is wrapped when a backend record has no local rendition.
var ErrUnmappable = errors.New("backend record cannot be mapped")

type TrackingMode string

type HabitType string

type LogStatus string

const (
	ModeDaily  TrackingMode = "daily"
	ModeWeekly TrackingMode = "weekly"
	ModeCount  TrackingMode = "count"
	ModeTime   TrackingMode = "time"

	TypeGood    HabitType = "good"
	TypeBad     HabitType = "bad"
	TypeNeutral HabitType = "neutral"

	StatusCompleted LogStatus = "completed"
	StatusMissed    LogStatus = "missed"
	StatusNone      LogStatus = "none"
	StatusSkipped   LogStatus = "skipped"
	StatusFailed    LogStatus = "failed"
	StatusPartial   LogStatus = "partial"
)

// Decimal is a backend decimal field. The API sends decimals as strings
// ("10.00") but plain numbers are accepted too.
type Decimal float64

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(d), 'f', 2, 64))
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid decimal %s: %w", data, err)
	}
	*d = Decimal(f)
	return nil
}

func decimalFrom(a models.Amount) *Decimal {
	v, ok := a.Get()
	if !ok {
		return nil
	}
	d := Decimal(v)
	return &d
}

func (d *Decimal) amount() models.Amount {
	if d == nil {
		return models.None()
	}
	return models.Some(float64(*d))
}

// Habit is the backend's habit record.
type Habit struct {
	ID           int64        `json:"id,omitempty"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Emoji        string       `json:"emoji"`
	Color        string       `json:"color"`
	HabitType    HabitType    `json:"habit_type"`
	TrackingMode TrackingMode `json:"tracking_mode"`
	TargetAmount *Decimal     `json:"target_amount"`
	Unit         string       `json:"unit"`
	DurationDays *int         `json:"duration_days"`
	IsPublic     bool         `json:"is_public"`
	CreatedAt    time.Time    `json:"created_at,omitempty"`
}

// Log is the backend's per-day record.
type Log struct {
	ID         int64     `json:"id,omitempty"`
	LogDate    string    `json:"log_date"`
	Status     LogStatus `json:"status"`
	AmountDone *Decimal  `json:"amount_done"`
	Note       string    `json:"note,omitempty"`
}

// LocalKind is the fixed translation from the backend's tracking vocabulary.
//
//	tracking_mode  habit_type     tracking         cadence
//	daily          good/neutral   tick_cross       daily
//	weekly         good/neutral   tick_cross       weekly
//	daily          bad            quit             daily
//	weekly         bad            quit             weekly
//	count          any            variable_amount  daily
//	time           any            variable_amount  daily
func LocalKind(mode TrackingMode, kind HabitType) (constants.TrackingType, constants.Cadence, error) {
	switch kind {
	case TypeGood, TypeNeutral, TypeBad, "":
	default:
		return "", "", fmt.Errorf("%w: unknown habit_type %q", ErrUnmappable, kind)
	}

	switch mode {
	case ModeCount, ModeTime:
		return constants.TrackingVariableAmount, constants.CadenceDaily, nil
	case ModeDaily, ModeWeekly:
		cadence := constants.CadenceDaily
		if mode == ModeWeekly {
			cadence = constants.CadenceWeekly
		}
		if kind == TypeBad {
			return constants.TrackingQuit, cadence, nil
		}
		return constants.TrackingTickCross, cadence, nil
	default:
		return "", "", fmt.Errorf("%w: unknown tracking_mode %q", ErrUnmappable, mode)
	}
}

// BackendKind is the reverse translation. Monthly cadence has no backend
// mode and is sent as daily; time habits come back as count.
func BackendKind(tracking constants.TrackingType, cadence constants.Cadence) (TrackingMode, HabitType) {
	mode := ModeDaily
	if cadence == constants.CadenceWeekly {
		mode = ModeWeekly
	}
	switch tracking {
	case constants.TrackingVariableAmount:
		return ModeCount, TypeGood
	case constants.TrackingQuit:
		return mode, TypeBad
	default:
		return mode, TypeGood
	}
}

// LocalID renders a backend ID as a local habit ID.
func LocalID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// BackendID parses a local habit ID. Habits created offline have non-numeric
// IDs and no backend counterpart.
func BackendID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ToLocalHabit maps a backend habit. A missing duration falls back to
// constants.DefaultDurationDays.
func ToLocalHabit(b Habit) (models.Habit, error) {
	tracking, cadence, err := LocalKind(b.TrackingMode, b.HabitType)
	if err != nil {
		return models.Habit{}, fmt.Errorf("habit %d: %w", b.ID, err)
	}

	h := models.Habit{
		ID:           LocalID(b.ID),
		Label:        models.NormalizeLabel(b.Name),
		Emoji:        b.Emoji,
		Color:        b.Color,
		TrackingType: tracking,
		Cadence:      cadence,
		DurationDays: constants.DefaultDurationDays,
		CreatedAt:    b.CreatedAt,
		IsPrivate:    !b.IsPublic,
	}
	if b.DurationDays != nil && *b.DurationDays > 0 {
		h.DurationDays = *b.DurationDays
	}
	if tracking == constants.TrackingVariableAmount {
		h.Target = b.TargetAmount.amount()
		h.Unit = b.Unit
	}
	if err := h.Validate(h.CreatedAt); err != nil {
		return models.Habit{}, fmt.Errorf("habit %d: %w: %v", b.ID, ErrUnmappable, err)
	}
	return h, nil
}

func ToBackendHabit(h models.Habit) Habit {
	mode, kind := BackendKind(h.TrackingType, h.EffectiveCadence())
	duration := h.DurationDays
	b := Habit{
		Name:         h.Label,
		Emoji:        h.Emoji,
		Color:        h.Color,
		HabitType:    kind,
		TrackingMode: mode,
		TargetAmount: decimalFrom(h.Target),
		Unit:         h.Unit,
		DurationDays: &duration,
		IsPublic:     !h.IsPrivate,
		CreatedAt:    h.CreatedAt,
	}
	if id, ok := BackendID(h.ID); ok {
		b.ID = id
	}
	return b
}

// Completed reports the local completed flag for a backend status.
func (s LogStatus) Completed() (bool, error) {
	switch s {
	case StatusCompleted:
		return true, nil
	case StatusMissed, StatusNone, StatusSkipped, StatusFailed, StatusPartial:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown log status %q", ErrUnmappable, s)
	}
}

// ToLocalLog maps a backend log of habit h. Amounts are kept only for
// variable_amount habits.
func ToLocalLog(h models.Habit, b Log) (models.HabitLog, error) {
	completed, err := b.Status.Completed()
	if err != nil {
		return models.HabitLog{}, err
	}
	value := models.None()
	if h.TrackingType == constants.TrackingVariableAmount {
		value = b.AmountDone.amount()
	}
	l, err := models.NewLog(h, b.LogDate, completed, value)
	if err != nil {
		return models.HabitLog{}, fmt.Errorf("%w: %v", ErrUnmappable, err)
	}
	return l, nil
}

func ToBackendLog(l models.HabitLog) Log {
	status := StatusMissed
	if l.Completed {
		status = StatusCompleted
	}
	return Log{
		LogDate:    l.Date,
		Status:     status,
		AmountDone: decimalFrom(l.Value),
	}
}
