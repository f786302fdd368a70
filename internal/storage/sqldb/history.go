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

const historyColumns = `id, label, emoji, color, tracking_type, highest_streak, days_completed, days_missed, total_days, completed_at, target_amount, unit, reason`

func scanHistory(row rowScanner) (models.QuestHistoryEntry, error) {
	var e models.QuestHistoryEntry
	var trackingType, completedAt, reason string
	var target sql.NullFloat64

	err := row.Scan(&e.ID, &e.Label, &e.Emoji, &e.Color, &trackingType, &e.HighestStreak,
		&e.DaysCompleted, &e.DaysMissed, &e.TotalDays, &completedAt, &target, &e.Unit, &reason)
	if err != nil {
		return models.QuestHistoryEntry{}, err
	}

	e.TrackingType = constants.TrackingType(trackingType)
	e.Reason = constants.ArchiveReason(reason)
	e.Target = models.AmountFromPtr(floatPtr(target))
	e.CompletedAt, err = parseTime(completedAt)
	if err != nil {
		return models.QuestHistoryEntry{}, fmt.Errorf("failed to parse completed_at for %s: %w", e.ID, err)
	}
	return e, nil
}

func (r *Repo) AddHistoryEntry(e models.QuestHistoryEntry) error {
	res, err := r.insertHistory(r.db, e)
	if err != nil {
		return fmt.Errorf("failed to add history entry %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("history entry %s: %w", e.ID, storage.ErrHistoryExists)
	}
	return nil
}

func (r *Repo) insertHistory(q queryer, e models.QuestHistoryEntry) (sql.Result, error) {
	reason := e.Reason
	if reason == "" {
		reason = constants.ArchiveCompleted
	}
	return r.exec(q, `
		INSERT INTO quest_history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Label, e.Emoji, e.Color, string(e.TrackingType), e.HighestStreak,
		e.DaysCompleted, e.DaysMissed, e.TotalDays, formatTime(e.CompletedAt),
		nullFloat(e.Target.Ptr()), e.Unit, string(reason))
}

// GetHistory returns entries newest first.
func (r *Repo) GetHistory() ([]models.QuestHistoryEntry, error) {
	rows, err := r.query(r.db, "SELECT "+historyColumns+" FROM quest_history")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.QuestHistoryEntry{}
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})
	return entries, nil
}

func (r *Repo) GetHistoryEntry(id string) (models.QuestHistoryEntry, error) {
	e, err := scanHistory(r.queryRow(r.db, "SELECT "+historyColumns+" FROM quest_history WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.QuestHistoryEntry{}, fmt.Errorf("history entry %s: %w", id, storage.ErrNotFound)
	}
	return e, err
}

func (r *Repo) DeleteHistoryEntry(id string) error {
	res, err := r.exec(r.db, "DELETE FROM quest_history WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("history entry %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (r *Repo) ReplaceAllHistory(entries []models.QuestHistoryEntry) error {
	return r.inTx(func(tx *sql.Tx) error {
		if _, err := r.exec(tx, "DELETE FROM quest_history"); err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := r.insertHistory(tx, e); err != nil {
				return fmt.Errorf("failed to insert history entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}
