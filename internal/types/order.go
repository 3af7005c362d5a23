package types

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses form the fulfilment lifecycle; payment status is tracked
// independently.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

type Order struct {
	ID            uuid.UUID      `json:"id"`
	OrderNumber   string         `json:"orderNumber"`
	CustomerID    *uuid.UUID     `json:"customerId,omitempty"`
	Customer      *OrderCustomer `json:"customer,omitempty"`
	Subtotal      float64        `json:"subtotal"`
	TaxAmount     float64        `json:"taxAmount"`
	Total         float64        `json:"total"`
	Currency      string         `json:"currency"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"paymentStatus"`
	Notes         *string        `json:"notes,omitempty"`
	Items         []OrderItem    `json:"items"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// OrderDetail extends Order with the billing and shipping addresses.
type OrderDetail struct {
	Order
	BillingAddress  *CustomerAddress `json:"billingAddress,omitempty"`
	ShippingAddress *CustomerAddress `json:"shippingAddress,omitempty"`
}

// OrderCustomer is the customer projection embedded in order responses.
type OrderCustomer struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     *string   `json:"phone,omitempty"`
	Company   *string   `json:"company,omitempty"`
}

// OrderItem snapshots product name, SKU and price at purchase time so later
// catalog edits do not rewrite history.
type OrderItem struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"orderId,omitempty"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	VariantID   *uuid.UUID `json:"variantId,omitempty"`
	ProductName string     `json:"productName"`
	VariantName *string    `json:"variantName,omitempty"`
	SKU         string     `json:"sku"`
	Quantity    int        `json:"quantity"`
	Price       float64    `json:"price"`
	Total       float64    `json:"total"`
}

type CreateOrderItemParams struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type CreateOrderParams struct {
	CustomerID        *string                 `json:"customerId" validate:"omitempty,uuid"`
	CustomerEmail     *string                 `json:"customerEmail" validate:"omitempty,email"`
	CustomerFirstName *string                 `json:"customerFirstName" validate:"omitempty,min=1,max=100"`
	CustomerLastName  *string                 `json:"customerLastName" validate:"omitempty,min=1,max=100"`
	Items             []CreateOrderItemParams `json:"items" validate:"required,min=1,dive"`
	Notes             *string                 `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateOrderStatusParams struct {
	Status        string  `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	PaymentStatus *string `json:"paymentStatus" validate:"omitempty,oneof=pending paid failed refunded partially_refunded"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
}

// OrderStats is the 30-day order overview.
type OrderStats struct {
	TotalOrders       int     `json:"totalOrders"`
	CompletedOrders   int     `json:"completedOrders"`
	PendingOrders     int     `json:"pendingOrders"`
	PaidOrders        int     `json:"paidOrders"`
	Revenue30Days     float64 `json:"revenue30Days"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}
