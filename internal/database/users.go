package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quietgrove/intently/internal/apperr"
	"github.com/quietgrove/intently/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, subject, email, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Subject, user.Email); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, subject, email FROM users WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Subject, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("user %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetBySubject retrieves a user by the token subject claim
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, subject, email FROM users WHERE subject = $1`

	err := r.db.QueryRowContext(ctx, query, subject).Scan(&user.ID, &user.Subject, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("user with subject %s", subject)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by subject: %w", err)
	}

	return user, nil
}

// UpdateEmail records a changed email claim for an existing user
func (r *UserRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	query := `UPDATE users SET email = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, email, id)
	if err != nil {
		return fmt.Errorf("failed to update user email: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("user %s", id)
	}

	return nil
}
