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

// MoodLogRepository handles mood log database operations.
// Mood logs are append-only; there is no update or delete path.
type MoodLogRepository struct {
	db *DB
}

// NewMoodLogRepository creates a new mood log repository
func NewMoodLogRepository(db *DB) *MoodLogRepository {
	return &MoodLogRepository{db: db}
}

// Create appends a new mood log
func (r *MoodLogRepository) Create(ctx context.Context, m *models.MoodLog) error {
	query := `
		INSERT INTO mood_logs (id, user_id, mood, energy_level, notes, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING logged_at
	`

	loggedAt := m.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now()
	}

	err := r.db.QueryRowContext(ctx, query,
		m.ID,
		m.UserID,
		m.Mood,
		m.EnergyLevel,
		m.Notes,
		loggedAt,
	).Scan(&m.LoggedAt)

	if err != nil {
		return fmt.Errorf("failed to create mood log: %w", err)
	}

	return nil
}

// GetRecentByUserID retrieves the most recent mood logs for a user, newest first
func (r *MoodLogRepository) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.MoodLog, error) {
	query := `
		SELECT id, user_id, mood, energy_level, notes, logged_at
		FROM mood_logs
		WHERE user_id = $1
		ORDER BY logged_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.MoodLog
	for rows.Next() {
		m := &models.MoodLog{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Mood, &m.EnergyLevel, &m.Notes, &m.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mood log: %w", err)
		}
		logs = append(logs, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mood logs: %w", err)
	}

	return logs, nil
}

// GetLatestByUserID returns the single most recent mood log, the user's
// "current state"
func (r *MoodLogRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*models.MoodLog, error) {
	query := `
		SELECT id, user_id, mood, energy_level, notes, logged_at
		FROM mood_logs
		WHERE user_id = $1
		ORDER BY logged_at DESC
		LIMIT 1
	`

	m := &models.MoodLog{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&m.ID, &m.UserID, &m.Mood, &m.EnergyLevel, &m.Notes, &m.LoggedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("no mood logs for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest mood log: %w", err)
	}

	return m, nil
}
