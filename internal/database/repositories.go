package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/quietgrove/intently/internal/models"
)

// CommitmentStore defines the commitment operations consumers depend on.
// The interface enables mock implementations in tests.
type CommitmentStore interface {
	Create(ctx context.Context, c *models.Commitment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, filter *Filter) ([]*models.Commitment, error)
	GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Commitment, error)
	Update(ctx context.Context, c *models.Commitment) error
	Reschedule(ctx context.Context, id uuid.UUID, dueDate, dueTime string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MoodLogStore defines mood log operations
type MoodLogStore interface {
	Create(ctx context.Context, m *models.MoodLog) error
	GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.MoodLog, error)
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*models.MoodLog, error)
}

// BehaviorPatternStore defines behavior pattern operations
type BehaviorPatternStore interface {
	Upsert(ctx context.Context, p *models.BehaviorPattern) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.BehaviorPattern, error)
}

// Ensure concrete types implement the interfaces
var (
	_ CommitmentStore      = (*CommitmentRepository)(nil)
	_ MoodLogStore         = (*MoodLogRepository)(nil)
	_ BehaviorPatternStore = (*BehaviorPatternRepository)(nil)
)
