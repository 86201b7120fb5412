package models

import (
	"time"

	"github.com/google/uuid"
)

// RescheduleSuggestion is an AI-proposed alternate date/time for a commitment.
// Applying an accepted suggestion mutates only the commitment's due date and time.
type RescheduleSuggestion struct {
	ID            uuid.UUID `json:"id"`
	CommitmentID  uuid.UUID `json:"commitment_id"`
	UserID        uuid.UUID `json:"user_id"`
	OriginalDate  string    `json:"original_date"`
	OriginalTime  string    `json:"original_time"`
	SuggestedDate string    `json:"suggested_date"`
	SuggestedTime string    `json:"suggested_time"`
	Reason        string    `json:"reason"`
	Accepted      *bool     `json:"accepted,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
