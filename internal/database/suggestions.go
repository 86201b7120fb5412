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

// RescheduleSuggestionRepository persists AI-proposed reschedules
type RescheduleSuggestionRepository struct {
	db *DB
}

// NewRescheduleSuggestionRepository creates a new reschedule suggestion repository
func NewRescheduleSuggestionRepository(db *DB) *RescheduleSuggestionRepository {
	return &RescheduleSuggestionRepository{db: db}
}

const suggestionColumns = `id, commitment_id, user_id, original_date, original_time, suggested_date, suggested_time, reason, accepted, created_at`

func scanSuggestion(scan func(...any) error) (*models.RescheduleSuggestion, error) {
	s := &models.RescheduleSuggestion{}
	var accepted sql.NullBool
	err := scan(
		&s.ID,
		&s.CommitmentID,
		&s.UserID,
		&s.OriginalDate,
		&s.OriginalTime,
		&s.SuggestedDate,
		&s.SuggestedTime,
		&s.Reason,
		&accepted,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if accepted.Valid {
		s.Accepted = &accepted.Bool
	}
	return s, nil
}

// Create stores a new reschedule suggestion
func (r *RescheduleSuggestionRepository) Create(ctx context.Context, s *models.RescheduleSuggestion) error {
	query := `
		INSERT INTO reschedule_suggestions (id, commitment_id, user_id, original_date, original_time, suggested_date, suggested_time, reason, accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	var accepted sql.NullBool
	if s.Accepted != nil {
		accepted = sql.NullBool{Bool: *s.Accepted, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		s.ID,
		s.CommitmentID,
		s.UserID,
		s.OriginalDate,
		s.OriginalTime,
		s.SuggestedDate,
		s.SuggestedTime,
		s.Reason,
		accepted,
		time.Now(),
	).Scan(&s.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create reschedule suggestion: %w", err)
	}

	return nil
}

// GetByID retrieves a suggestion by ID
func (r *RescheduleSuggestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RescheduleSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM reschedule_suggestions WHERE id = $1`

	s, err := scanSuggestion(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("reschedule suggestion %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reschedule suggestion: %w", err)
	}

	return s, nil
}

// GetByCommitmentID retrieves suggestions for a commitment, newest first
func (r *RescheduleSuggestionRepository) GetByCommitmentID(ctx context.Context, commitmentID uuid.UUID) ([]*models.RescheduleSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM reschedule_suggestions WHERE commitment_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reschedule suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*models.RescheduleSuggestion
	for rows.Next() {
		s, err := scanSuggestion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reschedule suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reschedule suggestions: %w", err)
	}

	return suggestions, nil
}

// SetAccepted records whether the user accepted or declined a suggestion
func (r *RescheduleSuggestionRepository) SetAccepted(ctx context.Context, id uuid.UUID, accepted bool) error {
	query := `UPDATE reschedule_suggestions SET accepted = $2 WHERE id = $1 RETURNING id`

	var got uuid.UUID
	err := r.db.QueryRowContext(ctx, query, id, accepted).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("reschedule suggestion %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to update reschedule suggestion: %w", err)
	}

	return nil
}
