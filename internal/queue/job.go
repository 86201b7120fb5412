package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType names a background job kind.
type JobType string

const (
	// JobTypePriorityAnalysis scores one commitment's priority.
	JobTypePriorityAnalysis JobType = "priority_analysis"
	// JobTypeAutoReschedule proposes a new slot for a skipped commitment.
	JobTypeAutoReschedule JobType = "auto_reschedule"
	// JobTypePatternRefresh recomputes a user's behavior pattern.
	JobTypePatternRefresh JobType = "pattern_refresh"
)

// Job is the unit of background work. NotBefore and NotAfter bound the
// processing window; a job delivered outside it is requeued or dropped
// rather than run. Failed jobs dead-letter, they are not retried.
type Job struct {
	ID           uuid.UUID      `json:"id"`
	Type         JobType        `json:"type"`
	UserID       uuid.UUID      `json:"user_id"`
	CommitmentID *uuid.UUID     `json:"commitment_id,omitempty"`
	NotBefore    *time.Time     `json:"not_before,omitempty"`
	NotAfter     *time.Time     `json:"not_after,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewJob builds a job for userID. commitmentID is nil for user-scoped
// work such as pattern refreshes.
func NewJob(jobType JobType, userID uuid.UUID, commitmentID *uuid.UUID) *Job {
	return &Job{
		ID:           uuid.New(),
		Type:         jobType,
		UserID:       userID,
		CommitmentID: commitmentID,
		Metadata:     make(map[string]any),
		CreatedAt:    time.Now(),
	}
}

// ShouldProcess reports whether now falls inside the processing window.
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired reports whether the job's NotAfter has passed.
func (j *Job) IsExpired() bool {
	return j.NotAfter != nil && time.Now().After(*j.NotAfter)
}
