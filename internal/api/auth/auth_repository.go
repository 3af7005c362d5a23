package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongfa/admin-api/internal/types"
)

var _ Repository = (*PostgresAuthRepo)(nil)

// Repository defines the persistence contract for authentication.
type Repository interface {
	// GetUserByEmail retrieves a full user row (including the password hash)
	// for credential verification. Returns types.ErrNotFound when no user
	// with that email exists.
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// GetIdentity retrieves the minimal projection checked on every
	// authenticated request. Returns types.ErrNotFound when the user no
	// longer exists.
	GetIdentity(ctx context.Context, userID uuid.UUID) (*types.Identity, error)

	// GetUserByID retrieves a full user row. Returns types.ErrNotFound when
	// the user does not exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// UpdateProfile applies a partial self-service profile update. Returns
	// types.ErrConflict when the new email is already taken.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// UpdateLastLogin sets last_login to now.
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	query := `
		SELECT id, email, password_hash, first_name, last_name, role,
		       is_active, last_login, created_at, updated_at
		FROM users WHERE email = $1
	`
	err := r.pgpool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) GetIdentity(ctx context.Context, userID uuid.UUID) (*types.Identity, error) {
	var ident types.Identity
	query := `SELECT id, email, role, first_name, last_name, is_active FROM users WHERE id = $1`
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&ident.ID,
		&ident.Email,
		&ident.Role,
		&ident.FirstName,
		&ident.LastName,
		&ident.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching identity: %w", err)
	}
	return &ident, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	var user types.User
	query := `
		SELECT id, email, password_hash, first_name, last_name, role,
		       is_active, last_login, created_at, updated_at
		FROM users WHERE id = $1
	`
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user by id: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) error {
	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Email != nil {
		// Reject the update when another account already owns the email.
		var taken bool
		err := r.pgpool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id != $2)",
			*params.Email, userID).Scan(&taken)
		if err != nil {
			return fmt.Errorf("checking email uniqueness: %w", err)
		}
		if taken {
			return types.ErrConflict
		}
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *params.Email)
		argID++
	}
	if params.FirstName != nil {
		setClauses = append(setClauses, fmt.Sprintf("first_name = $%d", argID))
		args = append(args, *params.FirstName)
		argID++
	}
	if params.LastName != nil {
		setClauses = append(setClauses, fmt.Sprintf("last_name = $%d", argID))
		args = append(args, *params.LastName)
		argID++
	}
	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argID)

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2",
		passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, "UPDATE users SET last_login = NOW() WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}
