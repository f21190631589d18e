package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/weather-service/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code for unique constraint failures
const uniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database.
// Returns models.ErrUsernameTaken if the username is already registered.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, created_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUserProfile fills in the optional profile fields of a user
func (r *Repository) UpdateUserProfile(ctx context.Context, profile *models.UserProfile) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, phone_number = $5
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.FirstName, profile.LastName, profile.Email, profile.Phone); err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// FindUserByUsername retrieves a user by username.
// Returns models.ErrUserNotFound if no such user exists.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1`
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user's profile by id.
// Returns models.ErrUserNotFound if no such user exists.
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	query := `
		SELECT id, username, first_name, last_name, email, phone_number
		FROM users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&profile.ID, &profile.Username, &profile.FirstName, &profile.LastName,
			&profile.Email, &profile.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return profile, nil
}

// CreateQueryLog appends one query log entry
func (r *Repository) CreateQueryLog(ctx context.Context, log *models.QueryLog) error {
	query := `
		INSERT INTO query_logs (user_id, query, latitude, longitude, timestamp)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, timestamp`
	err := r.db.QueryRowContext(ctx, query, log.UserID, log.Query, log.Latitude, log.Longitude).
		Scan(&log.ID, &log.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create query log: %w", err)
	}
	return nil
}

// FindLogsByUserID retrieves all query log entries belonging to a user
func (r *Repository) FindLogsByUserID(ctx context.Context, userID int64) ([]models.QueryLog, error) {
	query := `
		SELECT id, user_id, query, latitude, longitude, timestamp
		FROM query_logs
		WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find logs: %w", err)
	}
	defer rows.Close()

	logs := []models.QueryLog{}
	for rows.Next() {
		var entry models.QueryLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Query,
			&entry.Latitude, &entry.Longitude, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return logs, nil
}

// DeleteLogsBefore removes query log entries older than the cutoff and
// returns the number of deleted rows. Used by the retention worker only;
// the HTTP API never deletes logs.
func (r *Repository) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM query_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete logs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted logs: %w", err)
	}
	return deleted, nil
}
