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
	"go.uber.org/zap"
)

// ChangeAction describes the kind of mutation a change handler is told about
type ChangeAction string

const (
	ChangeInsert ChangeAction = "insert"
	ChangeUpdate ChangeAction = "update"
	ChangeDelete ChangeAction = "delete"
)

// ChangeHandler is invoked after a successful commitment mutation so
// subscribers (the SSE change feed) can be notified. Errors from the handler
// never fail the mutation itself.
type ChangeHandler func(ctx context.Context, userID uuid.UUID, action ChangeAction, commitmentID uuid.UUID)

// CommitmentRepository handles commitment database operations
type CommitmentRepository struct {
	db       *DB
	logger   *zap.Logger
	onChange ChangeHandler
}

// NewCommitmentRepository creates a new commitment repository
func NewCommitmentRepository(db *DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

// SetLogger sets an optional logger for repository warnings
func (r *CommitmentRepository) SetLogger(logger *zap.Logger) {
	r.logger = logger
}

// SetChangeHandler registers the callback fired after every mutation
func (r *CommitmentRepository) SetChangeHandler(h ChangeHandler) {
	r.onChange = h
}

func (r *CommitmentRepository) notifyChange(ctx context.Context, userID uuid.UUID, action ChangeAction, id uuid.UUID) {
	if r.onChange == nil {
		return
	}
	r.onChange(ctx, userID, action, id)
}

const commitmentColumns = `id, user_id, title, description, due_date, due_time, completed, completed_at, priority, category, image_ref, created_at, updated_at`

func scanCommitment(scan func(...any) error) (*models.Commitment, error) {
	c := &models.Commitment{}
	var completedAt sql.NullTime
	err := scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.Description,
		&c.DueDate,
		&c.DueTime,
		&c.Completed,
		&completedAt,
		&c.Priority,
		&c.Category,
		&c.ImageRef,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	return c, nil
}

// Create creates a new commitment
func (r *CommitmentRepository) Create(ctx context.Context, c *models.Commitment) error {
	query := `
		INSERT INTO commitments (id, user_id, title, description, due_date, due_time, completed, priority, category, image_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		c.ID,
		c.UserID,
		c.Title,
		c.Description,
		c.DueDate,
		c.DueTime,
		c.Completed,
		c.Priority,
		c.Category,
		c.ImageRef,
		now,
		now,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create commitment: %w", err)
	}

	r.notifyChange(ctx, c.UserID, ChangeInsert, c.ID)
	return nil
}

// GetByID retrieves a commitment by ID
func (r *CommitmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE id = $1`

	c, err := scanCommitment(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("commitment %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}

	return c, nil
}

// Filter narrows GetByUserID results. Nil fields are ignored.
type Filter struct {
	DueDate   *string // exact YYYY-MM-DD match
	Completed *bool
	FromDate  *string // inclusive lower bound on due_date
	ToDate    *string // inclusive upper bound on due_date
}

// GetByUserID retrieves commitments for a user, optionally filtered,
// ordered by due date then due time
func (r *CommitmentRepository) GetByUserID(ctx context.Context, userID uuid.UUID, filter *Filter) ([]*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if filter != nil {
		if filter.DueDate != nil {
			query += fmt.Sprintf(" AND due_date = $%d", argIndex)
			args = append(args, *filter.DueDate)
			argIndex++
		}
		if filter.Completed != nil {
			query += fmt.Sprintf(" AND completed = $%d", argIndex)
			args = append(args, *filter.Completed)
			argIndex++
		}
		if filter.FromDate != nil {
			query += fmt.Sprintf(" AND due_date >= $%d", argIndex)
			args = append(args, *filter.FromDate)
			argIndex++
		}
		if filter.ToDate != nil {
			query += fmt.Sprintf(" AND due_date <= $%d", argIndex)
			args = append(args, *filter.ToDate)
			argIndex++
		}
	}

	query += " ORDER BY due_date, due_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commitments: %w", err)
	}
	defer rows.Close()

	var commitments []*models.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commitment: %w", err)
		}
		commitments = append(commitments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commitments: %w", err)
	}

	return commitments, nil
}

// GetAllPending retrieves incomplete commitments across all users, ordered
// by due date then due time. Used to rebuild reminder timers at startup.
func (r *CommitmentRepository) GetAllPending(ctx context.Context) ([]*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE completed = false ORDER BY due_date, due_time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending commitments: %w", err)
	}
	defer rows.Close()

	var commitments []*models.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commitment: %w", err)
		}
		commitments = append(commitments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commitments: %w", err)
	}

	return commitments, nil
}

// GetRecentByUserID retrieves the most recently created commitments for a
// user, newest first, capped at limit. Used to build AI history context.
func (r *CommitmentRepository) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Commitment, error) {
	query := `SELECT ` + commitmentColumns + ` FROM commitments WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent commitments: %w", err)
	}
	defer rows.Close()

	var commitments []*models.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commitment: %w", err)
		}
		commitments = append(commitments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commitments: %w", err)
	}

	return commitments, nil
}

// Update updates an existing commitment
func (r *CommitmentRepository) Update(ctx context.Context, c *models.Commitment) error {
	query := `
		UPDATE commitments
		SET title = $2, description = $3, due_date = $4, due_time = $5, completed = $6, completed_at = $7, priority = $8, category = $9, image_ref = $10, updated_at = $11
		WHERE id = $1
		RETURNING updated_at
	`

	var completedAt sql.NullTime
	if c.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *c.CompletedAt, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.DueDate,
		c.DueTime,
		c.Completed,
		completedAt,
		c.Priority,
		c.Category,
		c.ImageRef,
		time.Now(),
	).Scan(&c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("commitment %s", c.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update commitment: %w", err)
	}

	r.notifyChange(ctx, c.UserID, ChangeUpdate, c.ID)
	return nil
}

// Reschedule mutates only the due date and time of a commitment.
// Everything else is left untouched.
func (r *CommitmentRepository) Reschedule(ctx context.Context, id uuid.UUID, dueDate, dueTime string) error {
	query := `
		UPDATE commitments
		SET due_date = $2, due_time = $3, updated_at = $4
		WHERE id = $1
		RETURNING user_id
	`

	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, id, dueDate, dueTime, time.Now()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("commitment %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to reschedule commitment: %w", err)
	}

	r.notifyChange(ctx, userID, ChangeUpdate, id)
	return nil
}

// Delete deletes a commitment by ID
func (r *CommitmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM commitments WHERE id = $1 RETURNING user_id`

	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("commitment %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete commitment: %w", err)
	}

	r.notifyChange(ctx, userID, ChangeDelete, id)
	return nil
}
