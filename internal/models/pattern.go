package models

import (
	"time"

	"github.com/google/uuid"
)

// BehaviorPattern summarizes a user's historical completion habits.
// At most one row exists per user; recomputation overwrites in place.
type BehaviorPattern struct {
	UserID                uuid.UUID `json:"user_id"`
	TypicalCompletionHour int       `json:"typical_completion_hour"` // 0-23
	PreferredDays         []string  `json:"preferred_days"`          // top-3 weekday names, descending count
	AvgCompletionRate     float64   `json:"average_completion_rate"` // 0.0-1.0, 2 decimal places
	LastUpdated           time.Time `json:"last_updated"`
}
