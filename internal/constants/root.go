package constants

import "time"

// TrackingType selects the success rule family for a habit
type TrackingType string

// Cadence is the period a habit's streak is counted in
type Cadence string

// ArchiveReason records why a habit left active storage
type ArchiveReason string

// Backend names the storage technology behind the repositories
type Backend string

const (
	AppName             = "habitquest"
	DefaultKeyringUser  = "database-connection"
	APITokenKeyringUser = "api-token"
	DefaultConfigDir    = "~/.config/habitquest"
	DefaultStoreName    = "habitquest.db"
	DefaultKVDirName    = "store"
	ConfigFileName      = "config"
	EnvPrefix           = "HABITQUEST"
	Version             = "v0.3.0"

	// DateFormat is the civil date format used for every log date (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Day is the length used by elapsed-days arithmetic on instants
	Day = 24 * time.Hour

	// Economy
	RevivalCost    = 10
	DefaultBalance = 1250

	// DefaultDurationDays applies to backend habits that carry no duration
	DefaultDurationDays = 30

	// Remote
	RemoteTimeout = 15 * time.Second

	// Partial completion threshold for variable_amount habits (fraction of target)
	PartialCompletionRatio = 0.5

	// Watcher
	WatchThrottle = 100 * time.Millisecond

	// Tracking types
	TrackingTickCross      TrackingType = "tick_cross"
	TrackingVariableAmount TrackingType = "variable_amount"
	TrackingQuit           TrackingType = "quit"

	// Cadences
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"

	// Archive reasons
	ArchiveCompleted ArchiveReason = "completed"
	ArchiveDeleted   ArchiveReason = "deleted"

	// Storage backends
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendKV       Backend = "kv"
)
