package constants

import "time"

// Context keys
const (
	ContextTokenData = "token_data"
)

// Database defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Matching thresholds
const (
	// MinOverlapSegments is the minimum number of shared availability
	// segments a pair needs before it can be queued for any event type.
	MinOverlapSegments = 2
)

// Event orchestration
const (
	MaxVenueOptions        = 3
	MaxSuggestedTimeDates  = 5
	TentativeEventLeadTime = 7 * 24 * time.Hour
)

// Cancellation penalties
const (
	CancelBanThreshold = 3
	CancelBanDuration  = 7 * 24 * time.Hour
)

// Reminders
const (
	ReminderLeadTime   = 48 * time.Hour
	ReminderWindowSize = 2 * time.Hour
)

// Background job lease durations
const (
	QueueProcessLockTTL = 4 * time.Minute
	ReminderLockTTL     = 4 * time.Minute
)
