package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productSchema() Schema {
	return Schema{
		Filters: map[string]Filter{
			"search": {Columns: []string{"p.name", "p.description", "p.sku"}, Op: OpILike},
			"status": {Columns: []string{"p.is_active"}, Op: OpEq, Transform: ActiveFlag},
			"category": {
				Raw: "p.id IN (SELECT product_id FROM product_categories WHERE category_id = %s)",
			},
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
}

func TestBuild(t *testing.T) {
	s := productSchema()

	t.Run("NoFilters", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Empty(t, c.Where)
		assert.Equal(t, "ORDER BY p.created_at DESC", c.OrderBy)
		assert.Empty(t, c.Args)
		assert.Equal(t, 20, c.Limit)
		assert.Equal(t, 0, c.Offset)
	})

	t.Run("SearchWrapsWildcardsAndBindsValue", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 20, Filters: map[string]string{"search": "O'Brien"}})
		require.NoError(t, err)
		assert.Equal(t, "WHERE (p.name ILIKE $1 OR p.description ILIKE $1 OR p.sku ILIKE $1)", c.Where)
		require.Len(t, c.Args, 1)
		assert.Equal(t, "%O'Brien%", c.Args[0])
		// The raw value never appears in the generated text.
		assert.NotContains(t, c.Where, "O'Brien")
	})

	t.Run("TransformMapsStatusToBool", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 20, Filters: map[string]string{"status": "active"}})
		require.NoError(t, err)
		assert.Equal(t, "WHERE p.is_active = $1", c.Where)
		assert.Equal(t, []any{true}, c.Args)
	})

	t.Run("TransformRejectsBadValue", func(t *testing.T) {
		_, err := s.Build(Params{Page: 1, Limit: 20, Filters: map[string]string{"status": "banana"}})
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("RawPredicateReceivesPlaceholder", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 20, Filters: map[string]string{"category": "c0ffee"}})
		require.NoError(t, err)
		assert.Equal(t, "WHERE p.id IN (SELECT product_id FROM product_categories WHERE category_id = $1)", c.Where)
		assert.Equal(t, []any{"c0ffee"}, c.Args)
	})

	t.Run("PlaceholdersIncrementAcrossFilters", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 20, Filters: map[string]string{
			"search": "shirt",
			"status": "active",
		}})
		require.NoError(t, err)
		// Keys are applied in sorted order: search then status.
		assert.Equal(t, "WHERE (p.name ILIKE $1 OR p.description ILIKE $1 OR p.sku ILIKE $1) AND p.is_active = $2", c.Where)
		assert.Equal(t, []any{"%shirt%", true}, c.Args)
	})

	t.Run("UnknownFilterKeyIgnored", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 20, Filters: map[string]string{"evil": "1; DROP TABLE products"}})
		require.NoError(t, err)
		assert.Empty(t, c.Where)
		assert.Empty(t, c.Args)
	})

	t.Run("SortAllowList", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 20, SortBy: "price", SortOrder: "asc"})
		require.NoError(t, err)
		assert.Equal(t, "ORDER BY p.price ASC", c.OrderBy)

		_, err = s.Build(Params{Page: 1, Limit: 20, SortBy: "price; DROP TABLE products"})
		assert.ErrorIs(t, err, ErrInvalidSort)

		_, err = s.Build(Params{Page: 1, Limit: 20, SortBy: "price", SortOrder: "sideways"})
		assert.ErrorIs(t, err, ErrInvalidSort)
	})

	t.Run("Pagination", func(t *testing.T) {
		c, err := s.Build(Params{Page: 3, Limit: 25})
		require.NoError(t, err)
		assert.Equal(t, 25, c.Limit)
		assert.Equal(t, 50, c.Offset)

		_, err = s.Build(Params{Page: 0, Limit: 20})
		assert.ErrorIs(t, err, ErrInvalidPage)
	})

	t.Run("LimitClamped", func(t *testing.T) {
		c, err := s.Build(Params{Page: 1, Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, 100, c.Limit)

		c, err = s.Build(Params{Page: 1, Limit: 0})
		require.NoError(t, err)
		assert.Equal(t, 1, c.Limit)
	})
}

func TestFromRequest(t *testing.T) {
	s := productSchema()

	t.Run("Defaults", func(t *testing.T) {
		p, err := FromRequest(url.Values{}, s)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, DefaultLimit, p.Limit)
		assert.Empty(t, p.Filters)
	})

	t.Run("CollectsOnlySchemaKeys", func(t *testing.T) {
		q := url.Values{}
		q.Set("page", "2")
		q.Set("limit", "50")
		q.Set("search", "shirt")
		q.Set("injection", "x")
		p, err := FromRequest(q, s)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Page)
		assert.Equal(t, 50, p.Limit)
		assert.Equal(t, map[string]string{"search": "shirt"}, p.Filters)
	})

	t.Run("RejectsNonNumericPage", func(t *testing.T) {
		q := url.Values{}
		q.Set("page", "two")
		_, err := FromRequest(q, s)
		assert.ErrorIs(t, err, ErrInvalidPage)
	})

	t.Run("RejectsNonNumericLimit", func(t *testing.T) {
		q := url.Values{}
		q.Set("limit", "lots")
		_, err := FromRequest(q, s)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}
