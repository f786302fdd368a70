package storage

import "errors"

var (
	// ErrNotFound is returned by point lookups that match no record.
	ErrNotFound = errors.New("not found")
	// ErrHistoryExists is returned when a habit already has a history entry.
	ErrHistoryExists = errors.New("history entry already exists")
	// ErrInsufficientBalance is returned when a deduction exceeds the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAlreadySatisfied is returned by ApplyRevival when the date already
	// holds a log that counts as done.
	ErrAlreadySatisfied = errors.New("date already satisfied")
)
