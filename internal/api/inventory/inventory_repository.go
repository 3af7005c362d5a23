package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongfa/admin-api/internal/types"
)

var _ Repository = (*PostgresInventoryRepo)(nil)

// Repository defines the persistence contract for stock management.
type Repository interface {
	// Overview returns aggregate stock stats plus the per-product rows.
	Overview(ctx context.Context) (*types.InventoryStats, []types.InventoryItem, error)
	// AdjustStock applies a stock movement inside a transaction: the product
	// row is locked, the new quantity is computed (floored at zero), the
	// movement is logged to inventory_transactions, and a stock alert is
	// returned when the product ends at or below its threshold.
	AdjustStock(ctx context.Context, productID uuid.UUID, adjType string, quantity int, reason string, createdBy *uuid.UUID) (*types.AdjustStockResult, *types.StockAlert, error)
	SetReorderPoint(ctx context.Context, productID uuid.UUID, reorderPoint int) error
	// Alerts lists active products at or below their low-stock threshold,
	// lowest stock first.
	Alerts(ctx context.Context) ([]types.StockAlert, error)
	Transactions(ctx context.Context, productID *uuid.UUID, limit int) ([]types.InventoryTransaction, error)
}

type PostgresInventoryRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresInventoryRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresInventoryRepo {
	return &PostgresInventoryRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresInventoryRepo) Overview(ctx context.Context) (*types.InventoryStats, []types.InventoryItem, error) {
	var stats types.InventoryStats
	err := r.pgpool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active = true),
			COUNT(*) FILTER (WHERE stock_quantity <= low_stock_threshold AND stock_quantity > 0),
			COUNT(*) FILTER (WHERE stock_quantity = 0),
			COALESCE(SUM(stock_quantity), 0),
			COALESCE(SUM(stock_quantity * price), 0)
		FROM products`).Scan(
		&stats.TotalProducts,
		&stats.ActiveProducts,
		&stats.LowStockProducts,
		&stats.OutOfStockProducts,
		&stats.TotalStockQuantity,
		&stats.TotalInventoryValue,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching inventory stats: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
		SELECT
			p.id, p.name, p.sku, p.price, p.stock_quantity, p.low_stock_threshold,
			p.is_active, p.created_at, p.updated_at,
			COALESCE(
				(SELECT array_agg(pi.image_url ORDER BY pi.sort_order)
				 FROM product_images pi WHERE pi.product_id = p.id),
				'{}'),
			COALESCE(
				(SELECT array_agg(c.name ORDER BY c.name)
				 FROM product_categories pc
				 JOIN categories c ON c.id = pc.category_id
				 WHERE pc.product_id = p.id),
				'{}')
		FROM products p
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, nil, fmt.Errorf("listing inventory items: %w", err)
	}
	defer rows.Close()

	items := make([]types.InventoryItem, 0, 64)
	for rows.Next() {
		var it types.InventoryItem
		if err := rows.Scan(
			&it.ID, &it.Name, &it.SKU, &it.Price, &it.StockQuantity, &it.LowStockThreshold,
			&it.IsActive, &it.CreatedAt, &it.UpdatedAt, &it.Images, &it.Categories,
		); err != nil {
			return nil, nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating inventory rows: %w", err)
	}
	return &stats, items, nil
}

func (r *PostgresInventoryRepo) AdjustStock(ctx context.Context, productID uuid.UUID, adjType string, quantity int, reason string, createdBy *uuid.UUID) (*types.AdjustStockResult, *types.StockAlert, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		name      string
		sku       string
		current   int
		threshold int
	)
	err = tx.QueryRow(ctx,
		"SELECT name, sku, stock_quantity, low_stock_threshold FROM products WHERE id = $1 FOR UPDATE",
		productID).Scan(&name, &sku, &current, &threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, types.ErrNotFound
		}
		return nil, nil, fmt.Errorf("locking product row: %w", err)
	}

	newStock := current
	switch adjType {
	case "add":
		newStock = current + quantity
	case "remove":
		newStock = current - quantity
		if newStock < 0 {
			newStock = 0
		}
	case "set":
		newStock = quantity
		if newStock < 0 {
			newStock = 0
		}
	default:
		return nil, nil, fmt.Errorf("%w: invalid adjustment type %q", types.ErrValidation, adjType)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2",
		newStock, productID); err != nil {
		return nil, nil, fmt.Errorf("updating stock: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_transactions (product_id, transaction_type, quantity, reason, created_by)
		VALUES ($1, $2, $3, $4, $5)`,
		productID, transactionType(adjType), quantity, reason, createdBy); err != nil {
		return nil, nil, fmt.Errorf("logging inventory transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing stock adjustment: %w", err)
	}

	result := &types.AdjustStockResult{
		PreviousStock: current,
		NewStock:      newStock,
		Adjustment:    newStock - current,
	}

	var alert *types.StockAlert
	if newStock <= threshold {
		alert = &types.StockAlert{
			ID:                productID,
			Name:              name,
			SKU:               sku,
			StockQuantity:     newStock,
			LowStockThreshold: threshold,
			AlertLevel:        alertLevel(newStock, threshold),
		}
	}
	return result, alert, nil
}

func (r *PostgresInventoryRepo) SetReorderPoint(ctx context.Context, productID uuid.UUID, reorderPoint int) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE products SET low_stock_threshold = $1, updated_at = NOW() WHERE id = $2",
		reorderPoint, productID)
	if err != nil {
		return fmt.Errorf("updating reorder point: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresInventoryRepo) Alerts(ctx context.Context) ([]types.StockAlert, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, name, sku, stock_quantity, low_stock_threshold,
			CASE
				WHEN stock_quantity = 0 THEN 'out_of_stock'
				ELSE 'low_stock'
			END
		FROM products
		WHERE is_active = true AND stock_quantity <= low_stock_threshold
		ORDER BY stock_quantity ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing stock alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]types.StockAlert, 0, 8)
	for rows.Next() {
		var a types.StockAlert
		if err := rows.Scan(&a.ID, &a.Name, &a.SKU, &a.StockQuantity, &a.LowStockThreshold, &a.AlertLevel); err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alert rows: %w", err)
	}
	return alerts, nil
}

func (r *PostgresInventoryRepo) Transactions(ctx context.Context, productID *uuid.UUID, limit int) ([]types.InventoryTransaction, error) {
	q := `
		SELECT it.id, it.product_id, p.name, p.sku, it.transaction_type, it.quantity,
			it.reason, it.created_by, u.first_name || ' ' || u.last_name, it.created_at
		FROM inventory_transactions it
		JOIN products p ON p.id = it.product_id
		LEFT JOIN users u ON u.id = it.created_by`
	args := []interface{}{}
	if productID != nil {
		q += " WHERE it.product_id = $1"
		args = append(args, *productID)
	}
	q += fmt.Sprintf(" ORDER BY it.created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pgpool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]types.InventoryTransaction, 0, limit)
	for rows.Next() {
		var t types.InventoryTransaction
		if err := rows.Scan(
			&t.ID, &t.ProductID, &t.ProductName, &t.ProductSKU, &t.TransactionType,
			&t.Quantity, &t.Reason, &t.CreatedBy, &t.CreatedByName, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}
	return txs, nil
}

func transactionType(adjType string) string {
	switch adjType {
	case "add":
		return "stock_in"
	case "remove":
		return "stock_out"
	default:
		return "adjustment"
	}
}

func alertLevel(stock, threshold int) string {
	if stock == 0 {
		return "out_of_stock"
	}
	if stock <= threshold {
		return "low_stock"
	}
	return "normal"
}
