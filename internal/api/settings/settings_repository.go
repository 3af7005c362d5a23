package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hongfa/admin-api/internal/types"
)

// DB is the subset of pgxpool.Pool the repository needs. Keeping it narrow
// lets tests drive the repository with a mock connection.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ Repository = (*PostgresSettingsRepo)(nil)

// Repository defines the persistence contract for application settings.
type Repository interface {
	// Load returns the stored settings. Sections without a stored row keep
	// their default values.
	Load(ctx context.Context) (types.Settings, error)
	Save(ctx context.Context, settings types.Settings) error
	DatabaseStats(ctx context.Context) (*types.DatabaseStats, error)
}

type PostgresSettingsRepo struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresSettingsRepo(db DB, logger *slog.Logger) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresSettingsRepo) Load(ctx context.Context) (types.Settings, error) {
	settings := types.DefaultSettings()

	rows, err := r.db.Query(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return settings, fmt.Errorf("loading settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return settings, fmt.Errorf("scanning settings row: %w", err)
		}

		var dst any
		switch key {
		case "general":
			dst = &settings.General
		case "security":
			dst = &settings.Security
		case "notifications":
			dst = &settings.Notifications
		case "inventory":
			dst = &settings.Inventory
		case "orders":
			dst = &settings.Orders
		default:
			r.logger.Warn("Unknown settings section", slog.String("key", key))
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return settings, fmt.Errorf("decoding settings section %q: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return settings, fmt.Errorf("iterating settings rows: %w", err)
	}
	return settings, nil
}

func (r *PostgresSettingsRepo) Save(ctx context.Context, settings types.Settings) error {
	sections := map[string]any{
		"general":       settings.General,
		"security":      settings.Security,
		"notifications": settings.Notifications,
		"inventory":     settings.Inventory,
		"orders":        settings.Orders,
	}

	for _, key := range []string{"general", "security", "notifications", "inventory", "orders"} {
		raw, err := json.Marshal(sections[key])
		if err != nil {
			return fmt.Errorf("encoding settings section %q: %w", key, err)
		}
		_, err = r.db.Exec(ctx, `
			INSERT INTO settings (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			key, raw)
		if err != nil {
			return fmt.Errorf("saving settings section %q: %w", key, err)
		}
	}
	return nil
}

func (r *PostgresSettingsRepo) DatabaseStats(ctx context.Context) (*types.DatabaseStats, error) {
	stats := &types.DatabaseStats{Tables: make(map[string]int, 4)}

	var users, products, orders, customers int
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM customers)`).Scan(&users, &products, &orders, &customers)
	if err != nil {
		return nil, fmt.Errorf("counting tables: %w", err)
	}
	stats.Tables["users"] = users
	stats.Tables["products"] = products
	stats.Tables["orders"] = orders
	stats.Tables["customers"] = customers

	err = r.db.QueryRow(ctx, `
		SELECT pg_size_pretty(pg_database_size(current_database())),
			pg_database_size(current_database())`).Scan(
		&stats.Database.Size, &stats.Database.SizeBytes)
	if err != nil {
		return nil, fmt.Errorf("fetching database size: %w", err)
	}
	return stats, nil
}
