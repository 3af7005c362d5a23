package types

import (
	"time"

	"github.com/google/uuid"
)

type DashboardOverview struct {
	Overview     OverviewStats `json:"overview"`
	RecentOrders []RecentOrder `json:"recentOrders"`
	TopProducts  []TopProduct  `json:"topProducts"`
	SalesByDate  []SalesByDate `json:"salesByDate"`
}

type OverviewStats struct {
	Orders    OrderStats    `json:"orders"`
	Products  ProductStats  `json:"products"`
	Customers CustomerStats `json:"customers"`
}

type ProductStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	LowStock   int `json:"lowStock"`
	OutOfStock int `json:"outOfStock"`
	TotalStock int `json:"totalStock"`
}

type CustomerStats struct {
	Total        int     `json:"total"`
	New30Days    int     `json:"new30Days"`
	AverageValue float64 `json:"averageValue"`
}

type RecentOrder struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	Total         float64   `json:"total"`
	Status        string    `json:"status"`
	CustomerEmail *string   `json:"customerEmail,omitempty"`
	FirstName     *string   `json:"firstName,omitempty"`
	LastName      *string   `json:"lastName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type TopProduct struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	QuantitySold int     `json:"quantitySold"`
	Revenue      float64 `json:"revenue"`
}

type SalesByDate struct {
	Date        time.Time `json:"date"`
	OrdersCount int       `json:"ordersCount"`
	Revenue     float64   `json:"revenue"`
}

type SalesPeriodRow struct {
	Period            time.Time `json:"period"`
	OrdersCount       int       `json:"ordersCount"`
	Revenue           float64   `json:"revenue"`
	AverageOrderValue float64   `json:"averageOrderValue"`
	UniqueCustomers   int       `json:"uniqueCustomers"`
}

type CategoryPerformance struct {
	CategoryName  string  `json:"categoryName"`
	ProductsCount int     `json:"productsCount"`
	QuantitySold  int     `json:"quantitySold"`
	Revenue       float64 `json:"revenue"`
}

type SalesReport struct {
	Period              SalesPeriod           `json:"period"`
	Sales               []SalesPeriodRow      `json:"sales"`
	ProductPerformance  []TopProduct          `json:"productPerformance"`
	CategoryPerformance []CategoryPerformance `json:"categoryPerformance"`
}

type SalesPeriod struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	GroupBy string `json:"groupBy"`
}

type CustomerAcquisition struct {
	Date         time.Time `json:"date"`
	NewCustomers int       `json:"newCustomers"`
}

type CustomerValueSegment struct {
	ValueSegment  string  `json:"valueSegment"`
	CustomerCount int     `json:"customerCount"`
	AverageSpent  float64 `json:"averageSpent"`
	TotalSpent    float64 `json:"totalSpent"`
}

type RepeatCustomers struct {
	RepeatCustomers  int `json:"repeatCustomers"`
	OneTimeCustomers int `json:"oneTimeCustomers"`
	TotalCustomers   int `json:"totalCustomers"`
}

type CustomerReport struct {
	Period              string                 `json:"period"`
	CustomerAcquisition []CustomerAcquisition  `json:"customerAcquisition"`
	CustomerValue       []CustomerValueSegment `json:"customerValue"`
	RepeatCustomers     RepeatCustomers        `json:"repeatCustomers"`
}

type StockLevels struct {
	OutOfStock      int `json:"outOfStock"`
	LowStock        int `json:"lowStock"`
	InStock         int `json:"inStock"`
	TotalStockValue int `json:"totalStockValue"`
}

type InventoryTurnover struct {
	Name           string  `json:"name"`
	SKU            string  `json:"sku"`
	StockQuantity  int     `json:"stockQuantity"`
	SoldLast30Days int     `json:"soldLast30Days"`
	TurnoverRate   float64 `json:"turnoverRate"`
}

type InventoryReport struct {
	StockLevels       StockLevels         `json:"stockLevels"`
	InventoryTurnover []InventoryTurnover `json:"inventoryTurnover"`
	StockAlerts       []StockAlert        `json:"stockAlerts"`
}

type ChartSeries struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type ComprehensiveMetrics struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalCustomers    int     `json:"totalCustomers"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

type ComprehensiveReport struct {
	Metrics            ComprehensiveMetrics `json:"metrics"`
	TopProducts        []TopProduct         `json:"topProducts"`
	RevenueChart       ChartSeries          `json:"revenueChart"`
	CustomerChart      ChartSeries          `json:"customerChart"`
	StatusDistribution []int                `json:"statusDistribution"`
}

type TrackActivityParams struct {
	EventType string         `json:"eventType" validate:"required,max=100"`
	EventData map[string]any `json:"eventData"`
}
