package models

import (
	"time"

	"github.com/google/uuid"
)

// UrgencyLevel classifies how urgent a commitment is
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// PriorityAnnotation is an append-only AI analysis record attached to a commitment
type PriorityAnnotation struct {
	ID            uuid.UUID    `json:"id"`
	CommitmentID  uuid.UUID    `json:"commitment_id"`
	UserID        uuid.UUID    `json:"user_id"`
	PriorityScore float64      `json:"priority_score"` // 0.0-1.0
	UrgencyLevel  UrgencyLevel `json:"urgency_level"`
	Reasoning     string       `json:"reasoning"`
	CreatedAt     time.Time    `json:"created_at"`
}
