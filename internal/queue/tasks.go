// Package queue runs background clock work on Redis through asynq.
package queue

// Task types
const (
	TypeRecompute      = "hours:recompute"
	TypeDisplayRefresh = "display:refresh"
)

// DefaultQueue is the asynq queue used when none is configured.
const DefaultQueue = "punchclock"

// RecomputePayload identifies the user whose hours should be recomputed.
type RecomputePayload struct {
	UserID string `json:"user_id"`
}
