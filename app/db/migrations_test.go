package database

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableColumns extracts the column names defined in the CREATE TABLE block
// for the given table inside the embedded init migration.
func tableColumns(t *testing.T, table string) map[string]bool {
	t.Helper()

	sql, err := migrationFS.ReadFile("migrations/000001_init_schema.up.sql")
	require.NoError(t, err)

	re := regexp.MustCompile(fmt.Sprintf(
		`(?s)CREATE TABLE IF NOT EXISTS %s \((.*?)\n\);`, table))
	m := re.FindStringSubmatch(string(sql))
	require.NotNil(t, m, "no CREATE TABLE block for %s", table)

	cols := make(map[string]bool)
	for _, line := range strings.Split(m[1], "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		name := strings.ToLower(fields[0])
		switch name {
		case "", "primary", "check", "constraint", "foreign", "unique":
			continue
		}
		cols[name] = true
	}
	return cols
}

func TestInitSchemaOrderItemsColumns(t *testing.T) {
	cols := tableColumns(t, "order_items")

	// Every column the order repository reads back for line items must exist
	// in the DDL, or all order reads fail with an undefined-column error.
	selected := []string{
		"id", "order_id", "product_id", "variant_id", "product_name",
		"variant_name", "sku", "quantity", "price", "total", "created_at",
	}
	for _, col := range selected {
		assert.True(t, cols[col], "order_items is missing column %q", col)
	}
}

func TestInitSchemaCoreTables(t *testing.T) {
	sql, err := migrationFS.ReadFile("migrations/000001_init_schema.up.sql")
	require.NoError(t, err)

	for _, table := range []string{
		"users", "customers", "customer_addresses", "categories", "products",
		"product_images", "product_categories", "product_variants", "orders",
		"order_items", "inventory_transactions", "analytics_events", "settings",
	} {
		assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS "+table+" (",
			"missing table %s", table)
	}
}
