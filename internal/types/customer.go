package types

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a storefront buyer. Aggregates (order count, lifetime spend)
// are maintained by the order-creation transaction.
type Customer struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Phone            *string    `json:"phone,omitempty"`
	Company          *string    `json:"company,omitempty"`
	AcceptsMarketing bool       `json:"acceptsMarketing"`
	TotalOrders      int        `json:"totalOrders"`
	TotalSpent       float64    `json:"totalSpent"`
	LastOrderDate    *time.Time `json:"lastOrderDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// CustomerDetail extends Customer with the stored addresses.
type CustomerDetail struct {
	Customer
	Addresses []CustomerAddress `json:"addresses"`
}

type CustomerAddress struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customerId"`
	Type         string    `json:"type"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Company      *string   `json:"company,omitempty"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 *string   `json:"addressLine2,omitempty"`
	City         string    `json:"city"`
	State        *string   `json:"state,omitempty"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	Phone        *string   `json:"phone,omitempty"`
	IsDefault    bool      `json:"isDefault"`
}

type CreateCustomerParams struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"firstName" validate:"omitempty,max=100"`
	LastName  string  `json:"lastName" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	Company   *string `json:"company" validate:"omitempty,max=255"`
}

type UpdateCustomerParams struct {
	Email            *string `json:"email" validate:"omitempty,email"`
	FirstName        *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName         *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Phone            *string `json:"phone" validate:"omitempty,max=50"`
	Company          *string `json:"company" validate:"omitempty,max=255"`
	AcceptsMarketing *bool   `json:"acceptsMarketing"`
}
