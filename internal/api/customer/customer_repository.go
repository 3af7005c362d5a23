package customer

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

var listSchema = query.Schema{
	Filters: map[string]query.Filter{
		"search": {Columns: []string{"email", "first_name", "last_name", "company"}, Op: query.OpILike},
	},
	SortFields: map[string]string{
		"created_at":      "created_at",
		"email":           "email",
		"first_name":      "first_name",
		"last_name":       "last_name",
		"total_orders":    "total_orders",
		"total_spent":     "total_spent",
		"last_order_date": "last_order_date",
	},
	DefaultSort:  "created_at",
	DefaultOrder: "desc",
}

const customerColumns = `id, email, first_name, last_name, phone, company,
	accepts_marketing, total_orders, total_spent, last_order_date, created_at, updated_at`

var _ Repository = (*PostgresCustomerRepo)(nil)

// Repository defines the persistence contract for storefront customers.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]types.Customer, int, error)
	// GetByID returns the customer with all stored addresses attached.
	GetByID(ctx context.Context, customerID uuid.UUID) (*types.CustomerDetail, error)
	// Create inserts a customer record. Returns types.ErrConflict when the
	// email is already taken.
	Create(ctx context.Context, params types.CreateCustomerParams) (*types.Customer, error)
	Update(ctx context.Context, customerID uuid.UUID, params types.UpdateCustomerParams) error
	Delete(ctx context.Context, customerID uuid.UUID) error
}

type PostgresCustomerRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresCustomerRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresCustomerRepo {
	return &PostgresCustomerRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresCustomerRepo) List(ctx context.Context, p query.Params) ([]types.Customer, int, error) {
	cl, err := listSchema.Build(p)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers %s", cl.Where)
	if err := r.pgpool.QueryRow(ctx, countQuery, cl.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting customers: %w", err)
	}

	listQuery := fmt.Sprintf("SELECT %s FROM customers %s %s LIMIT $%d OFFSET $%d",
		customerColumns, cl.Where, cl.OrderBy, len(cl.Args)+1, len(cl.Args)+2)
	rows, err := r.pgpool.Query(ctx, listQuery, append(cl.Args, cl.Limit, cl.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	customers := make([]types.Customer, 0, cl.Limit)
	for rows.Next() {
		var c types.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("scanning customer row: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating customer rows: %w", err)
	}
	return customers, total, nil
}

func (r *PostgresCustomerRepo) GetByID(ctx context.Context, customerID uuid.UUID) (*types.CustomerDetail, error) {
	var detail types.CustomerDetail
	row := r.pgpool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM customers WHERE id = $1", customerColumns), customerID)
	if err := scanCustomer(row, &detail.Customer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching customer: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
		SELECT id, customer_id, type, first_name, last_name, company, address_line1,
			address_line2, city, state, postal_code, country, phone, is_default
		FROM customer_addresses
		WHERE customer_id = $1
		ORDER BY is_default DESC, type`, customerID)
	if err != nil {
		return nil, fmt.Errorf("fetching customer addresses: %w", err)
	}
	defer rows.Close()

	detail.Addresses = make([]types.CustomerAddress, 0, 2)
	for rows.Next() {
		var a types.CustomerAddress
		if err := rows.Scan(
			&a.ID, &a.CustomerID, &a.Type, &a.FirstName, &a.LastName, &a.Company,
			&a.AddressLine1, &a.AddressLine2, &a.City, &a.State, &a.PostalCode,
			&a.Country, &a.Phone, &a.IsDefault,
		); err != nil {
			return nil, fmt.Errorf("scanning address row: %w", err)
		}
		detail.Addresses = append(detail.Addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating address rows: %w", err)
	}
	return &detail, nil
}

func (r *PostgresCustomerRepo) Create(ctx context.Context, params types.CreateCustomerParams) (*types.Customer, error) {
	var c types.Customer
	q := fmt.Sprintf(`
		INSERT INTO customers (email, first_name, last_name, phone, company)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, customerColumns)
	row := r.pgpool.QueryRow(ctx, q,
		params.Email, params.FirstName, params.LastName, params.Phone, params.Company)
	if err := scanCustomer(row, &c); err != nil {
		if isUniqueViolation(err) {
			return nil, types.ErrConflict
		}
		return nil, fmt.Errorf("creating customer: %w", err)
	}
	return &c, nil
}

func (r *PostgresCustomerRepo) Update(ctx context.Context, customerID uuid.UUID, params types.UpdateCustomerParams) error {
	var setClauses []string
	var args []interface{}
	argID := 1

	set := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argID))
		args = append(args, val)
		argID++
	}

	if params.Email != nil {
		set("email", *params.Email)
	}
	if params.FirstName != nil {
		set("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		set("last_name", *params.LastName)
	}
	if params.Phone != nil {
		set("phone", *params.Phone)
	}
	if params.Company != nil {
		set("company", *params.Company)
	}
	if params.AcceptsMarketing != nil {
		set("accepts_marketing", *params.AcceptsMarketing)
	}
	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, customerID)
	q := fmt.Sprintf("UPDATE customers SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argID)

	tag, err := r.pgpool.Exec(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrConflict
		}
		return fmt.Errorf("updating customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresCustomerRepo) Delete(ctx context.Context, customerID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM customers WHERE id = $1", customerID)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row, c *types.Customer) error {
	return row.Scan(
		&c.ID,
		&c.Email,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&c.Company,
		&c.AcceptsMarketing,
		&c.TotalOrders,
		&c.TotalSpent,
		&c.LastOrderDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
