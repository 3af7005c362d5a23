package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongfa/admin-api/internal/query"
	"github.com/hongfa/admin-api/internal/types"
)

// listSchema is the allow-list for GET /products. The category filter is a
// membership subquery on the category slug.
var listSchema = query.Schema{
	Filters: map[string]query.Filter{
		"search": {Columns: []string{"p.name", "p.sku", "p.description"}, Op: query.OpILike},
		"status": {Columns: []string{"p.is_active"}, Transform: query.ActiveFlag},
		"category": {Raw: `p.id IN (
			SELECT pc.product_id FROM product_categories pc
			JOIN categories c ON c.id = pc.category_id
			WHERE c.slug = %s)`},
	},
	SortFields: map[string]string{
		"name":           "p.name",
		"price":          "p.price",
		"created_at":     "p.created_at",
		"stock_quantity": "p.stock_quantity",
	},
	DefaultSort:  "p.created_at",
	DefaultOrder: "desc",
}

// productColumns are the base columns plus the aggregated image URLs and
// category names every product response carries.
const productColumns = `
	p.id, p.name, p.slug, p.sku, p.price, p.description, p.short_description,
	p.stock_quantity, p.low_stock_threshold, p.is_active, p.is_featured,
	p.weight, p.dimensions, p.seo_title, p.seo_description, p.tags,
	p.created_at, p.updated_at,
	COALESCE((SELECT array_agg(pi.image_url ORDER BY pi.sort_order)
		FROM product_images pi WHERE pi.product_id = p.id), '{}') AS images,
	COALESCE((SELECT array_agg(c.name)
		FROM product_categories pc JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = p.id), '{}') AS categories`

var _ Repository = (*PostgresProductRepo)(nil)

// Repository defines the persistence contract for the catalog.
type Repository interface {
	List(ctx context.Context, p query.Params) ([]types.Product, int, error)
	// GetByID returns the product with its image rows, category refs and
	// variants. Returns types.ErrNotFound when missing.
	GetByID(ctx context.Context, productID uuid.UUID) (*types.ProductDetail, error)
	// Create inserts the product and its category links in one transaction.
	// Returns types.ErrConflict when the SKU is taken.
	Create(ctx context.Context, params types.CreateProductParams, slug string) (*types.Product, error)
	// Update applies a partial update; a non-nil CategoryIDs replaces the full
	// category set. Returns types.ErrNotFound / types.ErrConflict.
	Update(ctx context.Context, productID uuid.UUID, params types.UpdateProductParams, slug *string) error
	Delete(ctx context.Context, productID uuid.UUID) error
	// AddImages appends gallery rows for the product in one transaction.
	// Returns types.ErrNotFound when the product does not exist.
	AddImages(ctx context.Context, productID uuid.UUID, images []types.ProductImage) ([]types.ProductImage, error)
	ListCategories(ctx context.Context) ([]types.Category, error)
	// SlugExists reports whether a slug is already taken by another product.
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
}

type PostgresProductRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresProductRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresProductRepo {
	return &PostgresProductRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresProductRepo) List(ctx context.Context, p query.Params) ([]types.Product, int, error) {
	cl, err := listSchema.Build(p)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products p %s", cl.Where)
	if err := r.pgpool.QueryRow(ctx, countQuery, cl.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	listQuery := fmt.Sprintf("SELECT %s FROM products p %s %s LIMIT $%d OFFSET $%d",
		productColumns, cl.Where, cl.OrderBy, len(cl.Args)+1, len(cl.Args)+2)
	rows, err := r.pgpool.Query(ctx, listQuery, append(cl.Args, cl.Limit, cl.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	products := make([]types.Product, 0, cl.Limit)
	for rows.Next() {
		var p types.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating product rows: %w", err)
	}
	return products, total, nil
}

func (r *PostgresProductRepo) GetByID(ctx context.Context, productID uuid.UUID) (*types.ProductDetail, error) {
	var detail types.ProductDetail
	q := fmt.Sprintf("SELECT %s FROM products p WHERE p.id = $1", productColumns)
	if err := scanProduct(r.pgpool.QueryRow(ctx, q, productID), &detail.Product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching product: %w", err)
	}

	imgRows, err := r.pgpool.Query(ctx, `
		SELECT id, product_id, image_url, COALESCE(alt_text, ''), sort_order, is_primary
		FROM product_images WHERE product_id = $1 ORDER BY sort_order`, productID)
	if err != nil {
		return nil, fmt.Errorf("fetching product images: %w", err)
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img types.ProductImage
		if err := imgRows.Scan(&img.ID, &img.ProductID, &img.ImageURL, &img.AltText, &img.SortOrder, &img.IsPrimary); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		detail.ImageRows = append(detail.ImageRows, img)
	}
	if err := imgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating image rows: %w", err)
	}

	catRows, err := r.pgpool.Query(ctx, `
		SELECT c.id, c.name, c.slug
		FROM product_categories pc JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = $1 ORDER BY c.name`, productID)
	if err != nil {
		return nil, fmt.Errorf("fetching product categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var ref types.CategoryRef
		if err := catRows.Scan(&ref.ID, &ref.Name, &ref.Slug); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		detail.CategoryRef = append(detail.CategoryRef, ref)
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	varRows, err := r.pgpool.Query(ctx, `
		SELECT id, product_id, name, sku, price, stock_quantity
		FROM product_variants WHERE product_id = $1 ORDER BY name`, productID)
	if err != nil {
		return nil, fmt.Errorf("fetching product variants: %w", err)
	}
	defer varRows.Close()
	for varRows.Next() {
		var v types.ProductVariant
		if err := varRows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.StockQuantity); err != nil {
			return nil, fmt.Errorf("scanning variant row: %w", err)
		}
		detail.Variants = append(detail.Variants, v)
	}
	if err := varRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating variant rows: %w", err)
	}

	return &detail, nil
}

func (r *PostgresProductRepo) Create(ctx context.Context, params types.CreateProductParams, slug string) (*types.Product, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}
	isFeatured := false
	if params.IsFeatured != nil {
		isFeatured = *params.IsFeatured
	}
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	var productID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO products (name, slug, sku, price, description, short_description,
			stock_quantity, is_active, is_featured, weight, dimensions,
			seo_title, seo_description, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		params.Name, slug, params.SKU, params.Price, params.Description,
		params.ShortDescription, params.StockQuantity, isActive, isFeatured,
		params.Weight, params.Dimensions, params.SEOTitle, params.SEODescription, tags,
	).Scan(&productID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, types.ErrConflict
		}
		return nil, fmt.Errorf("inserting product: %w", err)
	}

	if err := replaceCategoryLinks(ctx, tx, productID, params.CategoryIDs, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing product: %w", err)
	}

	var created types.Product
	q := fmt.Sprintf("SELECT %s FROM products p WHERE p.id = $1", productColumns)
	if err := scanProduct(r.pgpool.QueryRow(ctx, q, productID), &created); err != nil {
		return nil, fmt.Errorf("reloading product: %w", err)
	}
	return &created, nil
}

func (r *PostgresProductRepo) Update(ctx context.Context, productID uuid.UUID, params types.UpdateProductParams, slug *string) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var setClauses []string
	var args []interface{}
	argID := 1
	set := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argID))
		args = append(args, val)
		argID++
	}

	if params.Name != nil {
		set("name", *params.Name)
	}
	if slug != nil {
		set("slug", *slug)
	}
	if params.SKU != nil {
		set("sku", *params.SKU)
	}
	if params.Price != nil {
		set("price", *params.Price)
	}
	if params.Description != nil {
		set("description", *params.Description)
	}
	if params.ShortDescription != nil {
		set("short_description", *params.ShortDescription)
	}
	if params.StockQuantity != nil {
		set("stock_quantity", *params.StockQuantity)
	}
	if params.IsActive != nil {
		set("is_active", *params.IsActive)
	}
	if params.IsFeatured != nil {
		set("is_featured", *params.IsFeatured)
	}
	if params.Weight != nil {
		set("weight", *params.Weight)
	}
	if params.Dimensions != nil {
		set("dimensions", params.Dimensions)
	}
	if params.SEOTitle != nil {
		set("seo_title", *params.SEOTitle)
	}
	if params.SEODescription != nil {
		set("seo_description", *params.SEODescription)
	}
	if params.Tags != nil {
		set("tags", params.Tags)
	}

	if len(setClauses) > 0 {
		setClauses = append(setClauses, "updated_at = NOW()")
		args = append(args, productID)
		q := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argID)
		tag, err := tx.Exec(ctx, q, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return types.ErrConflict
			}
			return fmt.Errorf("updating product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return types.ErrNotFound
		}
	} else {
		// Category-only update still requires the product to exist.
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", productID).Scan(&exists); err != nil {
			return fmt.Errorf("checking product: %w", err)
		}
		if !exists {
			return types.ErrNotFound
		}
	}

	if params.CategoryIDs != nil {
		if err := replaceCategoryLinks(ctx, tx, productID, params.CategoryIDs, true); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing product update: %w", err)
	}
	return nil
}

func (r *PostgresProductRepo) Delete(ctx context.Context, productID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM products WHERE id = $1", productID)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresProductRepo) AddImages(ctx context.Context, productID uuid.UUID, images []types.ProductImage) ([]types.ProductImage, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", productID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking product: %w", err)
	}
	if !exists {
		return nil, types.ErrNotFound
	}

	saved := make([]types.ProductImage, 0, len(images))
	for _, img := range images {
		img.ProductID = productID
		err := tx.QueryRow(ctx, `
			INSERT INTO product_images (product_id, image_url, alt_text, sort_order, is_primary)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			productID, img.ImageURL, img.AltText, img.SortOrder, img.IsPrimary,
		).Scan(&img.ID)
		if err != nil {
			return nil, fmt.Errorf("inserting product image: %w", err)
		}
		saved = append(saved, img)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing product images: %w", err)
	}
	return saved, nil
}

func (r *PostgresProductRepo) ListCategories(ctx context.Context) ([]types.Category, error) {
	rows, err := r.pgpool.Query(ctx,
		"SELECT id, name, slug, description FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []types.Category
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *PostgresProductRepo) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	var err error
	if excludeID != nil {
		err = r.pgpool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND id != $2)",
			slug, *excludeID).Scan(&exists)
	} else {
		err = r.pgpool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1)", slug).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return exists, nil
}

// replaceCategoryLinks rewrites the product's category set inside the caller's
// transaction. Category IDs are bound as parameters, never interpolated.
func replaceCategoryLinks(ctx context.Context, tx pgx.Tx, productID uuid.UUID, categoryIDs []string, clear bool) error {
	if clear {
		if _, err := tx.Exec(ctx, "DELETE FROM product_categories WHERE product_id = $1", productID); err != nil {
			return fmt.Errorf("clearing category links: %w", err)
		}
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	values := make([]string, len(categoryIDs))
	args := make([]interface{}, 0, len(categoryIDs)+1)
	args = append(args, productID)
	for i, catID := range categoryIDs {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
		args = append(args, catID)
	}
	q := "INSERT INTO product_categories (product_id, category_id) VALUES " + strings.Join(values, ", ")
	if _, err := tx.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("inserting category links: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row, p *types.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.SKU,
		&p.Price,
		&p.Description,
		&p.ShortDescription,
		&p.StockQuantity,
		&p.LowStockThreshold,
		&p.IsActive,
		&p.IsFeatured,
		&p.Weight,
		&p.Dimensions,
		&p.SEOTitle,
		&p.SEODescription,
		&p.Tags,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Images,
		&p.Categories,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
