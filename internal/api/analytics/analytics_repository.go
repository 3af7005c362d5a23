package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongfa/admin-api/internal/types"
)

var _ Repository = (*PostgresAnalyticsRepo)(nil)

// Repository defines the persistence contract for reporting queries and the
// activity event log.
type Repository interface {
	DashboardOverview(ctx context.Context) (*types.DashboardOverview, error)
	SalesReport(ctx context.Context, start, end string, groupBy string) (*types.SalesReport, error)
	CustomerReport(ctx context.Context, days int) (*types.CustomerReport, error)
	InventoryReport(ctx context.Context) (*types.InventoryReport, error)
	ComprehensiveReport(ctx context.Context, start, end string) (*types.ComprehensiveReport, error)
	InsertEvent(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error
}

type PostgresAnalyticsRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAnalyticsRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAnalyticsRepo {
	return &PostgresAnalyticsRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAnalyticsRepo) DashboardOverview(ctx context.Context) (*types.DashboardOverview, error) {
	var out types.DashboardOverview

	err := r.pgpool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE payment_status = 'paid'),
			COALESCE(SUM(total) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '30 days'), 0),
			COALESCE(SUM(total), 0),
			COALESCE(AVG(total), 0)
		FROM orders`).Scan(
		&out.Overview.Orders.TotalOrders,
		&out.Overview.Orders.CompletedOrders,
		&out.Overview.Orders.PendingOrders,
		&out.Overview.Orders.PaidOrders,
		&out.Overview.Orders.Revenue30Days,
		&out.Overview.Orders.TotalRevenue,
		&out.Overview.Orders.AverageOrderValue,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching order overview: %w", err)
	}

	err = r.pgpool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active = true),
			COUNT(*) FILTER (WHERE stock_quantity <= low_stock_threshold AND stock_quantity > 0),
			COUNT(*) FILTER (WHERE stock_quantity = 0),
			COALESCE(SUM(stock_quantity), 0)
		FROM products`).Scan(
		&out.Overview.Products.Total,
		&out.Overview.Products.Active,
		&out.Overview.Products.LowStock,
		&out.Overview.Products.OutOfStock,
		&out.Overview.Products.TotalStock,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching product overview: %w", err)
	}

	err = r.pgpool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '30 days'),
			COALESCE(AVG(total_spent), 0)
		FROM customers`).Scan(
		&out.Overview.Customers.Total,
		&out.Overview.Customers.New30Days,
		&out.Overview.Customers.AverageValue,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching customer overview: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
		SELECT o.id, o.order_number, o.total, o.status, c.email, c.first_name, c.last_name, o.created_at
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("fetching recent orders: %w", err)
	}
	defer rows.Close()
	out.RecentOrders = make([]types.RecentOrder, 0, 10)
	for rows.Next() {
		var o types.RecentOrder
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Total, &o.Status,
			&o.CustomerEmail, &o.FirstName, &o.LastName, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recent order: %w", err)
		}
		out.RecentOrders = append(out.RecentOrders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recent orders: %w", err)
	}

	out.TopProducts, err = r.topProducts(ctx)
	if err != nil {
		return nil, err
	}

	out.SalesByDate, err = r.salesByDate(ctx)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PostgresAnalyticsRepo) topProducts(ctx context.Context) ([]types.TopProduct, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT p.name, p.sku, SUM(oi.quantity), SUM(oi.total)
		FROM products p
		JOIN order_items oi ON oi.product_id = p.id
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = 'delivered'
		GROUP BY p.id, p.name, p.sku
		ORDER BY SUM(oi.quantity) DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("fetching top products: %w", err)
	}
	defer rows.Close()

	products := make([]types.TopProduct, 0, 10)
	for rows.Next() {
		var p types.TopProduct
		if err := rows.Scan(&p.Name, &p.SKU, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scanning top product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresAnalyticsRepo) salesByDate(ctx context.Context) ([]types.SalesByDate, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT DATE(created_at), COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at >= CURRENT_DATE - INTERVAL '30 days' AND status = 'delivered'
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`)
	if err != nil {
		return nil, fmt.Errorf("fetching sales by date: %w", err)
	}
	defer rows.Close()

	sales := make([]types.SalesByDate, 0, 30)
	for rows.Next() {
		var s types.SalesByDate
		if err := rows.Scan(&s.Date, &s.OrdersCount, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scanning sales by date: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// periodExpr maps the groupBy keyword to a fixed SQL expression. The keyword
// is validated against this allow-list before it ever reaches a query string.
var periodExpr = map[string]string{
	"day":   "DATE(created_at)",
	"week":  "DATE_TRUNC('week', created_at)",
	"month": "DATE_TRUNC('month', created_at)",
}

func (r *PostgresAnalyticsRepo) SalesReport(ctx context.Context, start, end string, groupBy string) (*types.SalesReport, error) {
	expr, ok := periodExpr[groupBy]
	if !ok {
		return nil, fmt.Errorf("%w: invalid groupBy %q", types.ErrValidation, groupBy)
	}

	report := &types.SalesReport{
		Period: types.SalesPeriod{Start: start, End: end, GroupBy: groupBy},
	}

	salesQuery := fmt.Sprintf(`
		SELECT %s, COUNT(*), COALESCE(SUM(total), 0), COALESCE(AVG(total), 0), COUNT(DISTINCT customer_id)
		FROM orders
		WHERE created_at >= $1::date AND created_at <= $2::date AND status = 'delivered'
		GROUP BY %s
		ORDER BY %s`, expr, expr, expr)
	rows, err := r.pgpool.Query(ctx, salesQuery, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching sales rows: %w", err)
	}
	defer rows.Close()
	report.Sales = make([]types.SalesPeriodRow, 0, 31)
	for rows.Next() {
		var s types.SalesPeriodRow
		if err := rows.Scan(&s.Period, &s.OrdersCount, &s.Revenue, &s.AverageOrderValue, &s.UniqueCustomers); err != nil {
			return nil, fmt.Errorf("scanning sales row: %w", err)
		}
		report.Sales = append(report.Sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sales rows: %w", err)
	}

	perfRows, err := r.pgpool.Query(ctx, `
		SELECT p.name, p.sku, SUM(oi.quantity), SUM(oi.total)
		FROM products p
		JOIN order_items oi ON oi.product_id = p.id
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1::date AND o.created_at <= $2::date AND o.status = 'delivered'
		GROUP BY p.id, p.name, p.sku
		ORDER BY SUM(oi.total) DESC
		LIMIT 20`, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching product performance: %w", err)
	}
	defer perfRows.Close()
	report.ProductPerformance = make([]types.TopProduct, 0, 20)
	for perfRows.Next() {
		var p types.TopProduct
		if err := perfRows.Scan(&p.Name, &p.SKU, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scanning product performance: %w", err)
		}
		report.ProductPerformance = append(report.ProductPerformance, p)
	}
	if err := perfRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product performance: %w", err)
	}

	catRows, err := r.pgpool.Query(ctx, `
		SELECT c.name, COUNT(DISTINCT p.id), SUM(oi.quantity), SUM(oi.total)
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		JOIN products p ON p.id = pc.product_id
		JOIN order_items oi ON oi.product_id = p.id
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1::date AND o.created_at <= $2::date AND o.status = 'delivered'
		GROUP BY c.id, c.name
		ORDER BY SUM(oi.total) DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching category performance: %w", err)
	}
	defer catRows.Close()
	report.CategoryPerformance = make([]types.CategoryPerformance, 0, 10)
	for catRows.Next() {
		var c types.CategoryPerformance
		if err := catRows.Scan(&c.CategoryName, &c.ProductsCount, &c.QuantitySold, &c.Revenue); err != nil {
			return nil, fmt.Errorf("scanning category performance: %w", err)
		}
		report.CategoryPerformance = append(report.CategoryPerformance, c)
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category performance: %w", err)
	}
	return report, nil
}

func (r *PostgresAnalyticsRepo) CustomerReport(ctx context.Context, days int) (*types.CustomerReport, error) {
	report := &types.CustomerReport{}

	rows, err := r.pgpool.Query(ctx, `
		SELECT DATE(created_at), COUNT(*)
		FROM customers
		WHERE created_at >= CURRENT_DATE - ($1 * INTERVAL '1 day')
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`, days)
	if err != nil {
		return nil, fmt.Errorf("fetching customer acquisition: %w", err)
	}
	defer rows.Close()
	report.CustomerAcquisition = make([]types.CustomerAcquisition, 0, days)
	for rows.Next() {
		var a types.CustomerAcquisition
		if err := rows.Scan(&a.Date, &a.NewCustomers); err != nil {
			return nil, fmt.Errorf("scanning customer acquisition: %w", err)
		}
		report.CustomerAcquisition = append(report.CustomerAcquisition, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customer acquisition: %w", err)
	}

	segRows, err := r.pgpool.Query(ctx, `
		SELECT
			CASE
				WHEN total_spent >= 1000 THEN 'High Value'
				WHEN total_spent >= 500 THEN 'Medium Value'
				WHEN total_spent >= 100 THEN 'Low Value'
				ELSE 'New Customer'
			END AS value_segment,
			COUNT(*),
			COALESCE(AVG(total_spent), 0),
			COALESCE(SUM(total_spent), 0)
		FROM customers
		GROUP BY value_segment
		ORDER BY SUM(total_spent) DESC`)
	if err != nil {
		return nil, fmt.Errorf("fetching customer value segments: %w", err)
	}
	defer segRows.Close()
	report.CustomerValue = make([]types.CustomerValueSegment, 0, 4)
	for segRows.Next() {
		var s types.CustomerValueSegment
		if err := segRows.Scan(&s.ValueSegment, &s.CustomerCount, &s.AverageSpent, &s.TotalSpent); err != nil {
			return nil, fmt.Errorf("scanning value segment: %w", err)
		}
		report.CustomerValue = append(report.CustomerValue, s)
	}
	if err := segRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating value segments: %w", err)
	}

	err = r.pgpool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE total_orders > 1),
			COUNT(*) FILTER (WHERE total_orders = 1),
			COUNT(*)
		FROM customers`).Scan(
		&report.RepeatCustomers.RepeatCustomers,
		&report.RepeatCustomers.OneTimeCustomers,
		&report.RepeatCustomers.TotalCustomers,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching repeat customers: %w", err)
	}
	return report, nil
}

func (r *PostgresAnalyticsRepo) InventoryReport(ctx context.Context) (*types.InventoryReport, error) {
	report := &types.InventoryReport{}

	err := r.pgpool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE stock_quantity = 0),
			COUNT(*) FILTER (WHERE stock_quantity > 0 AND stock_quantity <= low_stock_threshold),
			COUNT(*) FILTER (WHERE stock_quantity > low_stock_threshold),
			COALESCE(SUM(stock_quantity), 0)
		FROM products
		WHERE is_active = true`).Scan(
		&report.StockLevels.OutOfStock,
		&report.StockLevels.LowStock,
		&report.StockLevels.InStock,
		&report.StockLevels.TotalStockValue,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching stock levels: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
		SELECT p.name, p.sku, p.stock_quantity,
			COALESCE(SUM(oi.quantity), 0),
			CASE
				WHEN p.stock_quantity > 0 THEN ROUND(COALESCE(SUM(oi.quantity), 0) * 30.0 / p.stock_quantity, 2)
				ELSE 0
			END
		FROM products p
		LEFT JOIN order_items oi ON oi.product_id = p.id
		LEFT JOIN orders o ON o.id = oi.order_id AND o.created_at >= CURRENT_DATE - INTERVAL '30 days'
		WHERE p.is_active = true
		GROUP BY p.id, p.name, p.sku, p.stock_quantity
		ORDER BY 5 DESC
		LIMIT 20`)
	if err != nil {
		return nil, fmt.Errorf("fetching inventory turnover: %w", err)
	}
	defer rows.Close()
	report.InventoryTurnover = make([]types.InventoryTurnover, 0, 20)
	for rows.Next() {
		var t types.InventoryTurnover
		if err := rows.Scan(&t.Name, &t.SKU, &t.StockQuantity, &t.SoldLast30Days, &t.TurnoverRate); err != nil {
			return nil, fmt.Errorf("scanning inventory turnover: %w", err)
		}
		report.InventoryTurnover = append(report.InventoryTurnover, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory turnover: %w", err)
	}

	alertRows, err := r.pgpool.Query(ctx, `
		SELECT id, name, sku, stock_quantity, low_stock_threshold,
			CASE
				WHEN stock_quantity = 0 THEN 'out_of_stock'
				ELSE 'low_stock'
			END
		FROM products
		WHERE is_active = true AND stock_quantity <= low_stock_threshold
		ORDER BY stock_quantity ASC
		LIMIT 20`)
	if err != nil {
		return nil, fmt.Errorf("fetching stock alerts: %w", err)
	}
	defer alertRows.Close()
	report.StockAlerts = make([]types.StockAlert, 0, 20)
	for alertRows.Next() {
		var a types.StockAlert
		if err := alertRows.Scan(&a.ID, &a.Name, &a.SKU, &a.StockQuantity, &a.LowStockThreshold, &a.AlertLevel); err != nil {
			return nil, fmt.Errorf("scanning stock alert: %w", err)
		}
		report.StockAlerts = append(report.StockAlerts, a)
	}
	if err := alertRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock alerts: %w", err)
	}
	return report, nil
}

func (r *PostgresAnalyticsRepo) ComprehensiveReport(ctx context.Context, start, end string) (*types.ComprehensiveReport, error) {
	report := &types.ComprehensiveReport{}

	err := r.pgpool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(AVG(total), 0)
		FROM orders
		WHERE created_at >= $1::date AND created_at <= $2::date`, start, end).Scan(
		&report.Metrics.TotalOrders,
		&report.Metrics.TotalRevenue,
		&report.Metrics.AverageOrderValue,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching order metrics: %w", err)
	}

	if err := r.pgpool.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&report.Metrics.TotalCustomers); err != nil {
		return nil, fmt.Errorf("fetching customer count: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
		SELECT p.name, p.sku, COALESCE(SUM(oi.quantity), 0), COALESCE(SUM(oi.total), 0)
		FROM products p
		LEFT JOIN order_items oi ON oi.product_id = p.id
		LEFT JOIN orders o ON o.id = oi.order_id AND o.created_at >= $1::date AND o.created_at <= $2::date
		GROUP BY p.id, p.name, p.sku
		ORDER BY COALESCE(SUM(oi.total), 0) DESC
		LIMIT 10`, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching top products: %w", err)
	}
	defer rows.Close()
	report.TopProducts = make([]types.TopProduct, 0, 10)
	for rows.Next() {
		var p types.TopProduct
		if err := rows.Scan(&p.Name, &p.SKU, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scanning top product: %w", err)
		}
		report.TopProducts = append(report.TopProducts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating top products: %w", err)
	}

	report.RevenueChart, err = r.chartSeries(ctx, `
		SELECT DATE(created_at), COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at >= $1::date AND created_at <= $2::date AND status = 'delivered'
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching revenue chart: %w", err)
	}

	report.CustomerChart, err = r.chartSeries(ctx, `
		SELECT DATE(created_at), COUNT(*)::float8
		FROM customers
		WHERE created_at >= $1::date AND created_at <= $2::date
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching customer chart: %w", err)
	}

	statusRows, err := r.pgpool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM orders
		WHERE created_at >= $1::date AND created_at <= $2::date
		GROUP BY status`, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching status distribution: %w", err)
	}
	defer statusRows.Close()

	statusIndex := map[string]int{
		types.OrderStatusPending:    0,
		types.OrderStatusProcessing: 1,
		types.OrderStatusShipped:    2,
		types.OrderStatusDelivered:  3,
		types.OrderStatusCancelled:  4,
	}
	report.StatusDistribution = make([]int, 5)
	for statusRows.Next() {
		var status string
		var count int
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status distribution: %w", err)
		}
		if idx, ok := statusIndex[status]; ok {
			report.StatusDistribution[idx] = count
		}
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status distribution: %w", err)
	}
	return report, nil
}

func (r *PostgresAnalyticsRepo) chartSeries(ctx context.Context, q string, args ...interface{}) (types.ChartSeries, error) {
	series := types.ChartSeries{Labels: []string{}, Data: []float64{}}
	rows, err := r.pgpool.Query(ctx, q, args...)
	if err != nil {
		return series, err
	}
	defer rows.Close()
	for rows.Next() {
		var date time.Time
		var value float64
		if err := rows.Scan(&date, &value); err != nil {
			return series, err
		}
		series.Labels = append(series.Labels, date.Format("2006-01-02"))
		series.Data = append(series.Data, value)
	}
	return series, rows.Err()
}

func (r *PostgresAnalyticsRepo) InsertEvent(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error {
	_, err := r.pgpool.Exec(ctx, `
		INSERT INTO analytics_events (event_type, event_data, user_id)
		VALUES ($1, $2, $3)`,
		params.EventType, params.EventData, userID)
	if err != nil {
		return fmt.Errorf("inserting analytics event: %w", err)
	}
	return nil
}
