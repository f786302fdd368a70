package sqldb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/storage"
)

func (r *Repo) GetBalance() (int, error) {
	return r.balance(r.db)
}

func (r *Repo) balance(q queryer) (int, error) {
	var balance int
	err := r.queryRow(q, "SELECT balance FROM wallet WHERE id = 1").Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return r.startingBalance, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

func (r *Repo) setBalance(q queryer, balance int) error {
	_, err := r.exec(q, `
		INSERT INTO wallet (id, balance) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET balance = excluded.balance`, balance)
	return err
}

func (r *Repo) SetBalance(balance int) error {
	if balance < 0 {
		return fmt.Errorf("balance cannot be negative, got %d", balance)
	}
	return r.setBalance(r.db, balance)
}

func (r *Repo) AddBalance(delta int) (int, error) {
	var next int
	err := r.inTx(func(tx *sql.Tx) error {
		current, err := r.balance(tx)
		if err != nil {
			return err
		}
		next = current + delta
		if next < 0 {
			next = 0
		}
		return r.setBalance(tx, next)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *Repo) ApplyRevival(l models.HabitLog, cost int, satisfied func(models.HabitLog) bool) (int, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	l.UpdatedAt = r.now()

	var next int
	err := r.inTx(func(tx *sql.Tx) error {
		existing, err := r.getLog(tx, l.HabitID, l.Date)
		switch {
		case err == nil:
			if satisfied != nil && satisfied(existing) {
				return fmt.Errorf("%s on %s: %w", l.HabitID, l.Date, storage.ErrAlreadySatisfied)
			}
		case errors.Is(err, storage.ErrNotFound):
		default:
			return err
		}

		current, err := r.balance(tx)
		if err != nil {
			return err
		}
		if current < cost {
			return fmt.Errorf("balance %d, revival costs %d: %w", current, cost, storage.ErrInsufficientBalance)
		}
		next = current - cost

		if err := r.setBalance(tx, next); err != nil {
			return err
		}
		return r.upsertLog(tx, l)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
