package types

import (
	"time"

	"github.com/google/uuid"
)

type InventoryStats struct {
	TotalProducts       int     `json:"totalProducts"`
	ActiveProducts      int     `json:"activeProducts"`
	LowStockProducts    int     `json:"lowStockProducts"`
	OutOfStockProducts  int     `json:"outOfStockProducts"`
	TotalStockQuantity  int     `json:"totalStockQuantity"`
	TotalInventoryValue float64 `json:"totalInventoryValue"`
}

type InventoryItem struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	Price             float64   `json:"price"`
	StockQuantity     int       `json:"stockQuantity"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	IsActive          bool      `json:"isActive"`
	Images            []string  `json:"images"`
	Categories        []string  `json:"categories"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type StockAlert struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	StockQuantity     int       `json:"stockQuantity"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	AlertLevel        string    `json:"alertLevel"`
}

// InventoryTransaction is the immutable stock movement log.
type InventoryTransaction struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"productId"`
	ProductName     string     `json:"productName,omitempty"`
	ProductSKU      string     `json:"productSku,omitempty"`
	TransactionType string     `json:"transactionType"`
	Quantity        int        `json:"quantity"`
	Reason          string     `json:"reason"`
	CreatedBy       *uuid.UUID `json:"createdBy,omitempty"`
	CreatedByName   *string    `json:"createdByName,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type AdjustStockParams struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	Type      string  `json:"type" validate:"required,oneof=add remove set"`
	Quantity  int     `json:"quantity" validate:"gte=0"`
	Reason    *string `json:"reason" validate:"omitempty,max=255"`
}

type AdjustStockResult struct {
	PreviousStock int `json:"previousStock"`
	NewStock      int `json:"newStock"`
	Adjustment    int `json:"adjustment"`
}

type ReorderPointParams struct {
	ProductID    string `json:"productId" validate:"required,uuid"`
	ReorderPoint int    `json:"reorderPoint" validate:"gte=0"`
}
