package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog record. Images, categories and variants live in
// side tables and are aggregated on read.
type Product struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Slug              string          `json:"slug"`
	SKU               string          `json:"sku"`
	Price             float64         `json:"price"`
	Description       *string         `json:"description,omitempty"`
	ShortDescription  *string         `json:"shortDescription,omitempty"`
	StockQuantity     int             `json:"stockQuantity"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	IsActive          bool            `json:"isActive"`
	IsFeatured        bool            `json:"isFeatured"`
	Weight            *float64        `json:"weight,omitempty"`
	Dimensions        json.RawMessage `json:"dimensions,omitempty"`
	SEOTitle          *string         `json:"seoTitle,omitempty"`
	SEODescription    *string         `json:"seoDescription,omitempty"`
	Tags              []string        `json:"tags"`
	Images            []string        `json:"images"`
	Categories        []string        `json:"categories"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// ProductDetail extends Product with the full image, category and variant rows.
type ProductDetail struct {
	Product
	ImageRows   []ProductImage   `json:"imageRows"`
	CategoryRef []CategoryRef    `json:"categoryRefs"`
	Variants    []ProductVariant `json:"variants"`
}

type ProductImage struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	ImageURL  string    `json:"imageUrl"`
	AltText   string    `json:"altText"`
	SortOrder int       `json:"sortOrder"`
	IsPrimary bool      `json:"isPrimary"`
}

type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
}

type ProductVariant struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"productId"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
}

// CreateProductParams is the product creation request body.
type CreateProductParams struct {
	Name             string          `json:"name" validate:"required,min=1,max=255"`
	SKU              string          `json:"sku" validate:"required,min=1,max=100"`
	Price            float64         `json:"price" validate:"gte=0"`
	Description      *string         `json:"description"`
	ShortDescription *string         `json:"shortDescription" validate:"omitempty,max=500"`
	CategoryIDs      []string        `json:"categoryIds" validate:"omitempty,dive,uuid"`
	StockQuantity    int             `json:"stockQuantity" validate:"gte=0"`
	IsActive         *bool           `json:"isActive"`
	IsFeatured       *bool           `json:"isFeatured"`
	Weight           *float64        `json:"weight"`
	Dimensions       json.RawMessage `json:"dimensions"`
	SEOTitle         *string         `json:"seoTitle"`
	SEODescription   *string         `json:"seoDescription"`
	Tags             []string        `json:"tags"`
}

// UpdateProductParams carries optional fields for a partial product update.
// CategoryIDs, when present, replaces the full category set.
type UpdateProductParams struct {
	Name             *string         `json:"name" validate:"omitempty,min=1,max=255"`
	SKU              *string         `json:"sku" validate:"omitempty,min=1,max=100"`
	Price            *float64        `json:"price" validate:"omitempty,gte=0"`
	Description      *string         `json:"description"`
	ShortDescription *string         `json:"shortDescription" validate:"omitempty,max=500"`
	CategoryIDs      []string        `json:"categoryIds" validate:"omitempty,dive,uuid"`
	StockQuantity    *int            `json:"stockQuantity" validate:"omitempty,gte=0"`
	IsActive         *bool           `json:"isActive"`
	IsFeatured       *bool           `json:"isFeatured"`
	Weight           *float64        `json:"weight"`
	Dimensions       json.RawMessage `json:"dimensions"`
	SEOTitle         *string         `json:"seoTitle"`
	SEODescription   *string         `json:"seoDescription"`
	Tags             []string        `json:"tags"`
}
