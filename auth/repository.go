package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/taskman-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// UserRepository persists and looks up user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// TokenRepository persists, resolves and revokes access tokens. A token is
// stored by its hash only; revocation deletes every row for a user.
type TokenRepository interface {
	Create(ctx context.Context, userID int64, tokenHash string) error
	FindUserID(ctx context.Context, tokenHash string) (int64, error)
	DeleteForUser(ctx context.Context, userID int64) error
}

// PGUserRepository is the pgx-backed UserRepository.
type PGUserRepository struct {
	db *pgxpool.Pool
}

// NewPGUserRepository creates a PGUserRepository.
func NewPGUserRepository(db *pgxpool.Pool) *PGUserRepository {
	return &PGUserRepository{db: db}
}

// Create inserts a new user row. A duplicate email surfaces as a field-keyed
// ValidationError so the API reports it like any other invalid input.
func (r *PGUserRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (name, email, password)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, user.Name, user.Email, user.HashedPassword).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
			return apperror.NewValidationError("The given data was invalid", nil).
				WithFields(map[string][]string{"email": {"The email has already been taken."}})
		}
		return apperror.NewDatabaseError("failed to create user", err)
	}
	return nil
}

// FindByEmail looks a user up by email (stored lowercased).
func (r *PGUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, name, email, password, created_at FROM users WHERE email = $1`
	var user User
	err := r.db.QueryRow(ctx, query, strings.ToLower(email)).
		Scan(&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by email", err)
	}
	return &user, nil
}

// PGTokenRepository is the pgx-backed TokenRepository.
type PGTokenRepository struct {
	db *pgxpool.Pool
}

// NewPGTokenRepository creates a PGTokenRepository.
func NewPGTokenRepository(db *pgxpool.Pool) *PGTokenRepository {
	return &PGTokenRepository{db: db}
}

// Create stores a token hash for a user.
func (r *PGTokenRepository) Create(ctx context.Context, userID int64, tokenHash string) error {
	query := `INSERT INTO access_tokens (user_id, token_hash) VALUES ($1, $2)`
	if _, err := r.db.Exec(ctx, query, userID, tokenHash); err != nil {
		return apperror.NewDatabaseError("failed to store access token", err)
	}
	return nil
}

// FindUserID resolves a token hash to its owning user.
func (r *PGTokenRepository) FindUserID(ctx context.Context, tokenHash string) (int64, error) {
	query := `SELECT user_id FROM access_tokens WHERE token_hash = $1`
	var userID int64
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewNotFoundError("token not found", nil)
		}
		return 0, apperror.NewDatabaseError("failed to resolve access token", err)
	}
	return userID, nil
}

// DeleteForUser revokes every token belonging to the user, not only the one
// presented with the request.
func (r *PGTokenRepository) DeleteForUser(ctx context.Context, userID int64) error {
	query := `DELETE FROM access_tokens WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return apperror.NewDatabaseError("failed to delete access tokens", err)
	}
	return nil
}
