package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

// taxRate is the German VAT applied to every order.
const taxRate = 0.19

// listSchema is the allow-list for GET /orders. The search filter spans the
// order number and the joined customer columns.
var listSchema = query.Schema{
	Filters: map[string]query.Filter{
		"search":        {Columns: []string{"o.order_number", "c.email", "c.first_name", "c.last_name"}, Op: query.OpILike},
		"status":        {Columns: []string{"o.status"}},
		"paymentStatus": {Columns: []string{"o.payment_status"}},
		"dateFrom":      {Columns: []string{"o.created_at"}, Op: query.OpGte, Transform: parseDate},
		"dateTo":        {Columns: []string{"o.created_at"}, Op: query.OpLte, Transform: parseDate},
	},
	SortFields: map[string]string{
		"created_at":   "o.created_at",
		"total":        "o.total",
		"order_number": "o.order_number",
	},
	DefaultSort:  "o.created_at",
	DefaultOrder: "desc",
}

// parseDate accepts RFC 3339 timestamps or plain dates for range filters.
func parseDate(raw string) (any, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("expected an RFC 3339 timestamp or YYYY-MM-DD date, got %q", raw)
}

var _ Repository = (*PostgresOrderRepo)(nil)

// Repository defines the persistence contract for orders.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]types.Order, int, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*types.OrderDetail, error)
	// Create builds the order inside a single transaction: customer
	// resolution (lookup or insert by email), product snapshot reads, order
	// and item inserts and the customer aggregate update all commit or roll
	// back together. Item prices are snapshotted from the live catalog.
	Create(ctx context.Context, orderNumber string, params types.CreateOrderParams) (*types.OrderDetail, error)
	// UpdateStatus updates the fulfilment and optionally payment status.
	// Returns types.ErrNotFound when the order does not exist.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, params types.UpdateOrderStatusParams) error
	Stats(ctx context.Context) (*types.OrderStats, error)
}

type PostgresOrderRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresOrderRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresOrderRepo {
	return &PostgresOrderRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const orderColumns = `
	o.id, o.order_number, o.customer_id, o.subtotal, o.tax_amount, o.total,
	o.currency, o.status, o.payment_status, o.notes, o.created_at, o.updated_at,
	c.id, c.email, c.first_name, c.last_name, c.phone, c.company`

func (r *PostgresOrderRepo) List(ctx context.Context, p query.Params) ([]types.Order, int, error) {
	cl, err := listSchema.Build(p)
	if err != nil {
		return nil, 0, err
	}

	const from = "FROM orders o LEFT JOIN customers c ON c.id = o.customer_id"

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s %s", from, cl.Where)
	if err := r.pgpool.QueryRow(ctx, countQuery, cl.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	listQuery := fmt.Sprintf("SELECT %s %s %s %s LIMIT $%d OFFSET $%d",
		orderColumns, from, cl.Where, cl.OrderBy, len(cl.Args)+1, len(cl.Args)+2)
	rows, err := r.pgpool.Query(ctx, listQuery, append(cl.Args, cl.Limit, cl.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	orders := make([]types.Order, 0, cl.Limit)
	orderIdx := make(map[uuid.UUID]int)
	for rows.Next() {
		var o types.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, fmt.Errorf("scanning order row: %w", err)
		}
		o.Items = []types.OrderItem{}
		orderIdx[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating order rows: %w", err)
	}

	if len(orders) > 0 {
		ids := make([]uuid.UUID, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		items, err := r.itemsFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, item := range items {
			if idx, ok := orderIdx[item.OrderID]; ok {
				orders[idx].Items = append(orders[idx].Items, item)
			}
		}
	}

	return orders, total, nil
}

func (r *PostgresOrderRepo) GetByID(ctx context.Context, orderID uuid.UUID) (*types.OrderDetail, error) {
	return r.getByID(ctx, r.pgpool, orderID)
}

// querier covers both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresOrderRepo) getByID(ctx context.Context, q querier, orderID uuid.UUID) (*types.OrderDetail, error) {
	var detail types.OrderDetail
	queryStr := fmt.Sprintf(`SELECT %s,
		ba.id, ba.customer_id, ba.type, ba.first_name, ba.last_name, ba.company,
		ba.address_line1, ba.address_line2, ba.city, ba.state, ba.postal_code,
		ba.country, ba.phone, ba.is_default,
		sa.id, sa.customer_id, sa.type, sa.first_name, sa.last_name, sa.company,
		sa.address_line1, sa.address_line2, sa.city, sa.state, sa.postal_code,
		sa.country, sa.phone, sa.is_default
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		LEFT JOIN customer_addresses ba ON ba.id = o.billing_address_id
		LEFT JOIN customer_addresses sa ON sa.id = o.shipping_address_id
		WHERE o.id = $1`, orderColumns)

	row := q.QueryRow(ctx, queryStr, orderID)
	var billing, shipping addressScan
	if err := scanOrderInto(row, &detail.Order, &billing, &shipping); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching order: %w", err)
	}
	detail.BillingAddress = billing.toAddress()
	detail.ShippingAddress = shipping.toAddress()

	items, err := r.itemsForQ(ctx, q, []uuid.UUID{orderID})
	if err != nil {
		return nil, err
	}
	detail.Items = items
	if detail.Items == nil {
		detail.Items = []types.OrderItem{}
	}
	return &detail, nil
}

func (r *PostgresOrderRepo) Create(ctx context.Context, orderNumber string, params types.CreateOrderParams) (*types.OrderDetail, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	customerID, err := resolveCustomer(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	// Snapshot product name, sku and price at purchase time.
	type line struct {
		productID uuid.UUID
		name      string
		sku       string
		price     float64
		quantity  int
		total     float64
	}
	lines := make([]line, 0, len(params.Items))
	subtotal := 0.0
	for _, item := range params.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid product id %q", types.ErrValidation, item.ProductID)
		}
		var ln line
		ln.productID = productID
		ln.quantity = item.Quantity
		err = tx.QueryRow(ctx,
			"SELECT name, sku, price FROM products WHERE id = $1 AND is_active = true",
			productID).Scan(&ln.name, &ln.sku, &ln.price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: product %s", types.ErrNotFound, productID)
			}
			return nil, fmt.Errorf("fetching product for order: %w", err)
		}
		ln.total = round2(ln.price * float64(ln.quantity))
		subtotal += ln.total
		lines = append(lines, ln)
	}
	subtotal = round2(subtotal)
	taxAmount := round2(subtotal * taxRate)
	total := round2(subtotal + taxAmount)

	var orderID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_id, subtotal, tax_amount, total,
			currency, status, payment_status, notes)
		VALUES ($1, $2, $3, $4, $5, 'EUR', 'pending', 'pending', $6)
		RETURNING id`,
		orderNumber, customerID, subtotal, taxAmount, total, params.Notes,
	).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	for _, ln := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, sku, quantity, price, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			orderID, ln.productID, ln.name, ln.sku, ln.quantity, ln.price, ln.total)
		if err != nil {
			return nil, fmt.Errorf("inserting order item: %w", err)
		}
	}

	if customerID != nil {
		_, err = tx.Exec(ctx, `
			UPDATE customers
			SET total_orders = total_orders + 1,
			    total_spent = total_spent + $1,
			    last_order_date = NOW(),
			    updated_at = NOW()
			WHERE id = $2`, total, *customerID)
		if err != nil {
			return nil, fmt.Errorf("updating customer aggregates: %w", err)
		}
	}

	detail, err := r.getByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}
	return detail, nil
}

func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, params types.UpdateOrderStatusParams) error {
	setClauses := []string{"status = $1", "updated_at = NOW()"}
	args := []interface{}{params.Status}
	argID := 2

	if params.PaymentStatus != nil {
		setClauses = append(setClauses, fmt.Sprintf("payment_status = $%d", argID))
		args = append(args, *params.PaymentStatus)
		argID++
	}
	if params.Notes != nil {
		setClauses = append(setClauses, fmt.Sprintf("notes = $%d", argID))
		args = append(args, *params.Notes)
		argID++
	}
	args = append(args, orderID)

	q := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argID)
	tag, err := r.pgpool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresOrderRepo) Stats(ctx context.Context) (*types.OrderStats, error) {
	var s types.OrderStats
	err := r.pgpool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE payment_status = 'paid'),
			COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid' AND created_at >= NOW() - INTERVAL '30 days'), 0),
			COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid'), 0),
			COALESCE(AVG(total) FILTER (WHERE payment_status = 'paid'), 0)
		FROM orders`).Scan(
		&s.TotalOrders,
		&s.CompletedOrders,
		&s.PendingOrders,
		&s.PaidOrders,
		&s.Revenue30Days,
		&s.TotalRevenue,
		&s.AverageOrderValue,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching order stats: %w", err)
	}
	return &s, nil
}

// resolveCustomer finds or creates the customer for a new order. A missing
// CustomerID is an error; a missing email means a guest order with no
// customer row.
func resolveCustomer(ctx context.Context, tx pgx.Tx, params types.CreateOrderParams) (*uuid.UUID, error) {
	if params.CustomerID != nil {
		id, err := uuid.Parse(*params.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid customer id %q", types.ErrValidation, *params.CustomerID)
		}
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)", id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("checking customer: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: customer %s", types.ErrNotFound, id)
		}
		return &id, nil
	}

	if params.CustomerEmail == nil {
		return nil, nil
	}

	var id uuid.UUID
	err := tx.QueryRow(ctx, "SELECT id FROM customers WHERE email = $1", *params.CustomerEmail).Scan(&id)
	if err == nil {
		return &id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("looking up customer by email: %w", err)
	}

	firstName, lastName := "", ""
	if params.CustomerFirstName != nil {
		firstName = *params.CustomerFirstName
	}
	if params.CustomerLastName != nil {
		lastName = *params.CustomerLastName
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO customers (email, first_name, last_name)
		VALUES ($1, $2, $3) RETURNING id`,
		*params.CustomerEmail, firstName, lastName).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating customer for order: %w", err)
	}
	return &id, nil
}

func (r *PostgresOrderRepo) itemsFor(ctx context.Context, orderIDs []uuid.UUID) ([]types.OrderItem, error) {
	return r.itemsForQ(ctx, r.pgpool, orderIDs)
}

func (r *PostgresOrderRepo) itemsForQ(ctx context.Context, q querier, orderIDs []uuid.UUID) ([]types.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, variant_name,
		       sku, quantity, price, total
		FROM order_items WHERE order_id = ANY($1) ORDER BY created_at, id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching order items: %w", err)
	}
	defer rows.Close()

	var items []types.OrderItem
	for rows.Next() {
		var it types.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID,
			&it.ProductName, &it.VariantName, &it.SKU, &it.Quantity, &it.Price, &it.Total); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}
	return items, nil
}

// customerScan holds the nullable joined customer columns.
type customerScan struct {
	id        *uuid.UUID
	email     *string
	firstName *string
	lastName  *string
	phone     *string
	company   *string
}

func (c customerScan) toCustomer() *types.OrderCustomer {
	if c.id == nil {
		return nil
	}
	oc := &types.OrderCustomer{ID: *c.id, Phone: c.phone, Company: c.company}
	if c.email != nil {
		oc.Email = *c.email
	}
	if c.firstName != nil {
		oc.FirstName = *c.firstName
	}
	if c.lastName != nil {
		oc.LastName = *c.lastName
	}
	return oc
}

// addressScan holds the nullable joined address columns.
type addressScan struct {
	id           *uuid.UUID
	customerID   *uuid.UUID
	addrType     *string
	firstName    *string
	lastName     *string
	company      *string
	addressLine1 *string
	addressLine2 *string
	city         *string
	state        *string
	postalCode   *string
	country      *string
	phone        *string
	isDefault    *bool
}

func (a *addressScan) fields() []any {
	return []any{&a.id, &a.customerID, &a.addrType, &a.firstName, &a.lastName,
		&a.company, &a.addressLine1, &a.addressLine2, &a.city, &a.state,
		&a.postalCode, &a.country, &a.phone, &a.isDefault}
}

func (a *addressScan) toAddress() *types.CustomerAddress {
	if a.id == nil {
		return nil
	}
	addr := &types.CustomerAddress{
		ID:           *a.id,
		CustomerID:   *a.customerID,
		Company:      a.company,
		AddressLine2: a.addressLine2,
		State:        a.state,
		Phone:        a.phone,
	}
	if a.addrType != nil {
		addr.Type = *a.addrType
	}
	if a.firstName != nil {
		addr.FirstName = *a.firstName
	}
	if a.lastName != nil {
		addr.LastName = *a.lastName
	}
	if a.addressLine1 != nil {
		addr.AddressLine1 = *a.addressLine1
	}
	if a.city != nil {
		addr.City = *a.city
	}
	if a.postalCode != nil {
		addr.PostalCode = *a.postalCode
	}
	if a.country != nil {
		addr.Country = *a.country
	}
	if a.isDefault != nil {
		addr.IsDefault = *a.isDefault
	}
	return addr
}

func scanOrder(row pgx.Row, o *types.Order) error {
	var cust customerScan
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Subtotal, &o.TaxAmount, &o.Total,
		&o.Currency, &o.Status, &o.PaymentStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		&cust.id, &cust.email, &cust.firstName, &cust.lastName, &cust.phone, &cust.company,
	); err != nil {
		return err
	}
	o.Customer = cust.toCustomer()
	return nil
}

func scanOrderInto(row pgx.Row, o *types.Order, billing, shipping *addressScan) error {
	var cust customerScan
	fields := []any{
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Subtotal, &o.TaxAmount, &o.Total,
		&o.Currency, &o.Status, &o.PaymentStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		&cust.id, &cust.email, &cust.firstName, &cust.lastName, &cust.phone, &cust.company,
	}
	fields = append(fields, billing.fields()...)
	fields = append(fields, shipping.fields()...)
	if err := row.Scan(fields...); err != nil {
		return err
	}
	o.Customer = cust.toCustomer()
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
