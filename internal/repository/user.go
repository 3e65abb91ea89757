package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devops-challenge/userapi/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// EmailConstraint is the unique constraint PostgreSQL names for "user".email.
const EmailConstraint = "user_email_key"

// ConflictError reports a duplicate email, keeping the driver's detail
// message (e.g. `Key (email)=(bob@email.com) already exists.`).
type ConflictError struct {
	Constraint string
	Detail     string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return "unique violation: " + e.Detail
	}
	return "unique violation on " + e.Constraint
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Queries runs user statements against a pool or a transaction.
type Queries struct {
	db DBTX
}

// NewQueries binds user statements to db.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// ListUsers returns one window of the user table in storage order.
// There is no ORDER BY, so pages are not stable under concurrent inserts.
func (q *Queries) ListUsers(ctx context.Context, offset, limit int) ([]model.User, error) {
	query := `
		SELECT id, email, name, created_at
		FROM "user"
		OFFSET $1 LIMIT $2
	`

	rows, err := q.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}

	return users, nil
}

// CreateUser inserts a user and returns the stored row, including the
// database-assigned id and created_at.
func (q *Queries) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	query := `
		INSERT INTO "user" (email, name)
		VALUES ($1, $2)
		RETURNING id, email, name, created_at
	`

	user, err := scanUser(q.db.QueryRow(ctx, query, in.Email, in.Name))
	if err != nil {
		if conflict, ok := emailConflict(err); ok {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// emailConflict reports whether err is a unique violation of the email
// constraint. Other unique violations are left for the caller to wrap.
func emailConflict(err error) (*ConflictError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, false
	}
	if pgErr.Code != uniqueViolation || pgErr.ConstraintName != EmailConstraint {
		return nil, false
	}
	return &ConflictError{
		Constraint: pgErr.ConstraintName,
		Detail:     pgErr.Detail,
		Err:        err,
	}, true
}

// CountUsers returns the number of rows in the user table.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM "user"`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser scans a single row into a User model.
func scanUser(row rowScanner) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
	)
	return user, err
}
