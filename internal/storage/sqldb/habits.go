package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

const habitColumns = `id, label, emoji, color, tracking_type, target_amount, unit, cadence, duration_days, created_at, is_private`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var trackingType, cadence, createdAt string
	var target sql.NullFloat64

	err := row.Scan(&h.ID, &h.Label, &h.Emoji, &h.Color, &trackingType, &target,
		&h.Unit, &cadence, &h.DurationDays, &createdAt, &h.IsPrivate)
	if err != nil {
		return models.Habit{}, err
	}

	h.TrackingType = constants.TrackingType(trackingType)
	h.Cadence = constants.Cadence(cadence)
	h.Target = models.AmountFromPtr(floatPtr(target))
	h.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
	}
	return h, nil
}

func (r *Repo) GetAllHabits() ([]models.Habit, error) {
	rows, err := r.query(r.db, "SELECT "+habitColumns+" FROM habits ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (r *Repo) GetHabit(id string) (models.Habit, error) {
	return r.getHabit(r.db, id)
}

func (r *Repo) getHabit(q queryer, id string) (models.Habit, error) {
	h, err := scanHabit(r.queryRow(q, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %s: %w", id, storage.ErrNotFound)
	}
	return h, err
}

func (r *Repo) CreateHabit(def models.HabitDefinition) (models.Habit, error) {
	now := r.now()
	h, err := models.NewHabit(r.newID(), def, now, now)
	if err != nil {
		return models.Habit{}, err
	}
	if err := r.insertHabit(r.db, h); err != nil {
		return models.Habit{}, fmt.Errorf("failed to create habit: %w", err)
	}
	return h, nil
}

func (r *Repo) insertHabit(q queryer, h models.Habit) error {
	_, err := r.exec(q, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Label, h.Emoji, h.Color, string(h.TrackingType), nullFloat(h.Target.Ptr()),
		h.Unit, string(h.EffectiveCadence()), h.DurationDays, formatTime(h.CreatedAt), h.IsPrivate)
	return err
}

func (r *Repo) UpdateHabit(id string, patch models.HabitPatch) (models.Habit, error) {
	var updated models.Habit
	err := r.inTx(func(tx *sql.Tx) error {
		current, err := r.getHabit(tx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		if err := updated.Validate(r.now()); err != nil {
			return err
		}
		_, err = r.exec(tx, `
			UPDATE habits
			SET label = ?, emoji = ?, color = ?, target_amount = ?, unit = ?, duration_days = ?, is_private = ?
			WHERE id = ?`,
			updated.Label, updated.Emoji, updated.Color, nullFloat(updated.Target.Ptr()),
			updated.Unit, updated.DurationDays, updated.IsPrivate, id)
		return err
	})
	if err != nil {
		return models.Habit{}, err
	}
	return updated, nil
}

// DeleteHabit is a no-op for unknown IDs so that an interrupted archival can
// be retried.
func (r *Repo) DeleteHabit(id string) error {
	_, err := r.exec(r.db, "DELETE FROM habits WHERE id = ?", id)
	return err
}

func (r *Repo) ReplaceAllHabits(habits []models.Habit) error {
	return r.inTx(func(tx *sql.Tx) error {
		if _, err := r.exec(tx, "DELETE FROM habits"); err != nil {
			return err
		}
		for _, h := range habits {
			if err := r.insertHabit(tx, h); err != nil {
				return fmt.Errorf("failed to insert habit %s: %w", h.ID, err)
			}
		}
		return nil
	})
}
