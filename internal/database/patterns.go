package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/quietgrove/intently/internal/apperr"
	"github.com/quietgrove/intently/internal/models"
)

// BehaviorPatternRepository persists derived behavior patterns.
// At most one row exists per user; Upsert overwrites in place.
type BehaviorPatternRepository struct {
	db *DB
}

// NewBehaviorPatternRepository creates a new behavior pattern repository
func NewBehaviorPatternRepository(db *DB) *BehaviorPatternRepository {
	return &BehaviorPatternRepository{db: db}
}

// Upsert inserts the pattern for the user, or overwrites the existing row
// and bumps last_updated
func (r *BehaviorPatternRepository) Upsert(ctx context.Context, p *models.BehaviorPattern) error {
	query := `
		INSERT INTO behavior_patterns (user_id, typical_completion_hour, preferred_days, average_completion_rate, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET typical_completion_hour = EXCLUDED.typical_completion_hour,
		    preferred_days = EXCLUDED.preferred_days,
		    average_completion_rate = EXCLUDED.average_completion_rate,
		    last_updated = EXCLUDED.last_updated
		RETURNING last_updated
	`

	err := r.db.QueryRowContext(ctx, query,
		p.UserID,
		p.TypicalCompletionHour,
		pq.Array(p.PreferredDays),
		p.AvgCompletionRate,
		time.Now(),
	).Scan(&p.LastUpdated)

	if err != nil {
		return fmt.Errorf("failed to upsert behavior pattern: %w", err)
	}

	return nil
}

// GetByUserID retrieves the behavior pattern for a user
func (r *BehaviorPatternRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.BehaviorPattern, error) {
	query := `
		SELECT user_id, typical_completion_hour, preferred_days, average_completion_rate, last_updated
		FROM behavior_patterns
		WHERE user_id = $1
	`

	p := &models.BehaviorPattern{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.TypicalCompletionHour,
		pq.Array(&p.PreferredDays),
		&p.AvgCompletionRate,
		&p.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("no behavior pattern for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get behavior pattern: %w", err)
	}

	return p, nil
}
