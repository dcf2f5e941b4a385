package store

import "time"

// ClockEvent is a single clock-in or clock-out mark. Timestamps are epoch milliseconds.
type ClockEvent struct {
	Timestamp  int64
	ClockingIn bool
}

// User is a person whose hours are tracked.
//
// ClockEvents is the system of record. InNow and LastEvent are denormalized
// copies of the latest event and may be nil for rows written before they
// were tracked.
type User struct {
	ID          string
	Name        string
	Email       string
	ClockEvents []ClockEvent
	InNow       *bool
	LastEvent   *int64
}

// AccessLevel controls which API areas a credential may use.
type AccessLevel string

const (
	AccessNone      AccessLevel = "NONE"
	AccessTimesheet AccessLevel = "TIMESHEET"
	AccessTimeclock AccessLevel = "TIMECLOCK"
	AccessAdmin     AccessLevel = "ADMIN"
)

// Credential is an API login. PasswordHash holds a bcrypt hash.
type Credential struct {
	Username     string
	PasswordHash string
	AccessLevel  AccessLevel
	CreatedAt    time.Time
}

// AnalyticsEvent is an append-only usage record.
type AnalyticsEvent struct {
	ID          string
	Timestamp   int64
	User        string
	Description string
}
