package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

// listSchema is the allow-list for GET /users. Sort keys mirror the column
// names the dashboard sends.
var listSchema = query.Schema{
	Filters: map[string]query.Filter{
		"search": {Columns: []string{"email", "first_name", "last_name"}, Op: query.OpILike},
		"role":   {Columns: []string{"role"}},
		"status": {Columns: []string{"is_active"}, Transform: query.ActiveFlag},
	},
	SortFields: map[string]string{
		"created_at": "created_at",
		"email":      "email",
		"first_name": "first_name",
		"last_name":  "last_name",
		"role":       "role",
		"last_login": "last_login",
	},
	DefaultSort:  "created_at",
	DefaultOrder: "desc",
}

const userColumns = `id, email, password_hash, first_name, last_name, role,
	is_active, last_login, created_at, updated_at`

var _ Repository = (*PostgresUserRepo)(nil)

// Repository defines the persistence contract for user management.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]types.User, int, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	// Create inserts a new account. Returns types.ErrConflict when the email
	// is already registered.
	Create(ctx context.Context, params types.CreateUserParams, passwordHash string) (*types.User, error)
	// Update applies a partial update. Returns types.ErrConflict on a duplicate
	// email and types.ErrNotFound when the user does not exist.
	Update(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) error
	Delete(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// SetActive flips is_active for the given users, returning how many rows
	// changed.
	SetActive(ctx context.Context, userIDs []uuid.UUID, active bool) (int, error)
	// DeleteMany hard-deletes the given users, returning how many rows went.
	DeleteMany(ctx context.Context, userIDs []uuid.UUID) (int, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) List(ctx context.Context, p query.Params) ([]types.User, int, error) {
	cl, err := listSchema.Build(p)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users %s", cl.Where)
	if err := r.pgpool.QueryRow(ctx, countQuery, cl.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	listQuery := fmt.Sprintf("SELECT %s FROM users %s %s LIMIT $%d OFFSET $%d",
		userColumns, cl.Where, cl.OrderBy, len(cl.Args)+1, len(cl.Args)+2)
	rows, err := r.pgpool.Query(ctx, listQuery, append(cl.Args, cl.Limit, cl.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := make([]types.User, 0, cl.Limit)
	for rows.Next() {
		var u types.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, total, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	var u types.User
	row := r.pgpool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns), userID)
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, params types.CreateUserParams, passwordHash string) (*types.User, error) {
	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	var u types.User
	q := fmt.Sprintf(`
		INSERT INTO users (email, password_hash, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, userColumns)
	row := r.pgpool.QueryRow(ctx, q,
		params.Email, passwordHash, params.FirstName, params.LastName, params.Role, isActive)
	if err := scanUser(row, &u); err != nil {
		if isUniqueViolation(err) {
			return nil, types.ErrConflict
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) Update(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) error {
	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Email != nil {
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
	if params.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", argID))
		args = append(args, *params.Role)
		argID++
	}
	if params.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, *params.IsActive)
		argID++
	}
	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)
	q := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argID)

	tag, err := r.pgpool.Exec(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrConflict
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2",
		passwordHash, userID)
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) SetActive(ctx context.Context, userIDs []uuid.UUID, active bool) (int, error) {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = ANY($2)",
		active, userIDs)
	if err != nil {
		return 0, fmt.Errorf("bulk updating users: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresUserRepo) DeleteMany(ctx context.Context, userIDs []uuid.UUID) (int, error) {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs)
	if err != nil {
		return 0, fmt.Errorf("bulk deleting users: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanUser(row pgx.Row, u *types.User) error {
	return row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
