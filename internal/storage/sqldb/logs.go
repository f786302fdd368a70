package sqldb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

const logColumns = `habit_id, day, completed, value, was_revived, updated_at`

func scanLog(row rowScanner) (models.HabitLog, error) {
	var l models.HabitLog
	var value sql.NullFloat64
	var updatedAt string

	if err := row.Scan(&l.HabitID, &l.Date, &l.Completed, &value, &l.WasRevived, &updatedAt); err != nil {
		return models.HabitLog{}, err
	}
	l.Value = models.AmountFromPtr(floatPtr(value))

	var err error
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to parse updated_at for %s: %w", l.Key(), err)
	}
	return l, nil
}

func (r *Repo) collectLogs(rows *sql.Rows, err error) ([]models.HabitLog, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.HabitLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *Repo) GetAllLogs(habitID string) ([]models.HabitLog, error) {
	if habitID == "" {
		return r.collectLogs(r.query(r.db, "SELECT "+logColumns+" FROM habit_logs ORDER BY habit_id, day"))
	}
	return r.collectLogs(r.query(r.db,
		"SELECT "+logColumns+" FROM habit_logs WHERE habit_id = ? ORDER BY day", habitID))
}

func (r *Repo) GetLog(habitID, date string) (models.HabitLog, error) {
	return r.getLog(r.db, habitID, date)
}

func (r *Repo) getLog(q queryer, habitID, date string) (models.HabitLog, error) {
	l, err := scanLog(r.queryRow(q,
		"SELECT "+logColumns+" FROM habit_logs WHERE habit_id = ? AND day = ?", habitID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return models.HabitLog{}, fmt.Errorf("log %s on %s: %w", habitID, date, storage.ErrNotFound)
	}
	return l, err
}

func (r *Repo) GetLogsInRange(habitID, start, end string) ([]models.HabitLog, error) {
	if habitID == "" {
		return r.collectLogs(r.query(r.db,
			"SELECT "+logColumns+" FROM habit_logs WHERE day >= ? AND day <= ? ORDER BY habit_id, day", start, end))
	}
	return r.collectLogs(r.query(r.db,
		"SELECT "+logColumns+" FROM habit_logs WHERE habit_id = ? AND day >= ? AND day <= ? ORDER BY day",
		habitID, start, end))
}

func (r *Repo) UpsertLog(l models.HabitLog) (models.HabitLog, error) {
	if err := l.Validate(); err != nil {
		return models.HabitLog{}, err
	}
	l.UpdatedAt = r.now()
	if err := r.upsertLog(r.db, l); err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to save log %s: %w", l.Key(), err)
	}
	return l, nil
}

func (r *Repo) upsertLog(q queryer, l models.HabitLog) error {
	_, err := r.exec(q, `
		INSERT INTO habit_logs (`+logColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			completed = excluded.completed,
			value = excluded.value,
			was_revived = excluded.was_revived,
			updated_at = excluded.updated_at`,
		l.HabitID, l.Date, l.Completed, nullFloat(l.Value.Ptr()), l.WasRevived, formatTime(l.UpdatedAt))
	return err
}

func (r *Repo) ReplaceAllLogs(logs []models.HabitLog) error {
	now := r.now()
	return r.inTx(func(tx *sql.Tx) error {
		if _, err := r.exec(tx, "DELETE FROM habit_logs"); err != nil {
			return err
		}
		for _, l := range logs {
			if err := l.Validate(); err != nil {
				return err
			}
			if l.UpdatedAt.IsZero() {
				l.UpdatedAt = now
			}
			if err := r.upsertLog(tx, l); err != nil {
				return fmt.Errorf("failed to insert log %s: %w", l.Key(), err)
			}
		}
		return nil
	})
}

func (r *Repo) DeleteLogsForHabit(habitID string) error {
	_, err := r.exec(r.db, "DELETE FROM habit_logs WHERE habit_id = ?", habitID)
	return err
}
