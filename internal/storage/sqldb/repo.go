// Package sqldb holds the SQL shared by the sqlite and postgres backends.
// Queries are written with '?' placeholders and rebound per dialect.
package sqldb

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitquest/internal/constants"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites '?' placeholders to '$n' for postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Repo implements every storage repository on top of a migrated database.
type Repo struct {
	db              *sql.DB
	dialect         Dialect
	now             func() time.Time
	newID           func() string
	startingBalance int
}

type Option func(*Repo)

// WithClock replaces time.Now for CreatedAt and updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(r *Repo) { r.newID = fn }
}

// WithStartingBalance sets the balance reported before any is saved.
func WithStartingBalance(n int) Option {
	return func(r *Repo) { r.startingBalance = n }
}

func New(db *sql.DB, dialect Dialect, opts ...Option) *Repo {
	r := &Repo{
		db:              db,
		dialect:         dialect,
		now:             time.Now,
		newID:           uuid.NewString,
		startingBalance: constants.DefaultBalance,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repo) DB() *sql.DB { return r.db }

func (r *Repo) exec(q queryer, query string, args ...any) (sql.Result, error) {
	return q.Exec(r.dialect.Rebind(query), args...)
}

func (r *Repo) query(q queryer, query string, args ...any) (*sql.Rows, error) {
	return q.Query(r.dialect.Rebind(query), args...)
}

func (r *Repo) queryRow(q queryer, query string, args ...any) *sql.Row {
	return q.QueryRow(r.dialect.Rebind(query), args...)
}

// inTx runs fn in a transaction, committing if it returns nil.
func (r *Repo) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullFloat(ptr *float64) sql.NullFloat64 {
	if ptr == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *ptr, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
