package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quietgrove/intently/internal/apperr"
	"github.com/quietgrove/intently/internal/models"
)

// PriorityAnnotationRepository persists append-only AI priority analyses
type PriorityAnnotationRepository struct {
	db *DB
}

// NewPriorityAnnotationRepository creates a new priority annotation repository
func NewPriorityAnnotationRepository(db *DB) *PriorityAnnotationRepository {
	return &PriorityAnnotationRepository{db: db}
}

// Create stores a new priority annotation
func (r *PriorityAnnotationRepository) Create(ctx context.Context, a *models.PriorityAnnotation) error {
	query := `
		INSERT INTO priority_annotations (id, commitment_id, user_id, priority_score, urgency_level, reasoning, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.ID,
		a.CommitmentID,
		a.UserID,
		a.PriorityScore,
		a.UrgencyLevel,
		a.Reasoning,
		time.Now(),
	).Scan(&a.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create priority annotation: %w", err)
	}

	return nil
}

// GetLatestByCommitmentID retrieves the most recent annotation for a commitment
func (r *PriorityAnnotationRepository) GetLatestByCommitmentID(ctx context.Context, commitmentID uuid.UUID) (*models.PriorityAnnotation, error) {
	query := `
		SELECT id, commitment_id, user_id, priority_score, urgency_level, reasoning, created_at
		FROM priority_annotations
		WHERE commitment_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	a := &models.PriorityAnnotation{}
	err := r.db.QueryRowContext(ctx, query, commitmentID).Scan(
		&a.ID,
		&a.CommitmentID,
		&a.UserID,
		&a.PriorityScore,
		&a.UrgencyLevel,
		&a.Reasoning,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("no priority annotation for commitment %s", commitmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get priority annotation: %w", err)
	}

	return a, nil
}
