// Package query assembles parameterized WHERE/ORDER/LIMIT clauses for list
// endpoints. Filter values are always bound as positional parameters and sort
// columns are resolved against a per-resource allow-list, so no request value
// ever reaches the generated SQL text.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidPage   = errors.New("page must be a positive integer")
	ErrInvalidLimit  = errors.New("limit must be an integer")
	ErrInvalidSort   = errors.New("unknown sort field")
	ErrInvalidFilter = errors.New("invalid filter value")
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Op is the comparison applied between a filter column and its bound value.
type Op int

const (
	OpEq Op = iota
	OpILike
	OpGte
	OpLte
)

// Filter describes one allowed filter key of a resource schema.
type Filter struct {
	// Columns compared against the bound value. With OpILike, multiple
	// columns become an OR group sharing a single placeholder.
	Columns []string
	Op      Op
	// Raw, when set, is a SQL fragment containing exactly one %s verb that
	// receives the placeholder. Used for predicates that are not a plain
	// column comparison (e.g. membership subqueries).
	Raw string
	// Transform optionally maps the raw request value onto the bound value
	// (e.g. "active" -> true). Returning an error rejects the request.
	Transform func(string) (any, error)
}

// Schema is the per-resource allow-list of filterable and sortable fields.
type Schema struct {
	Filters      map[string]Filter
	SortFields   map[string]string
	DefaultSort  string
	DefaultOrder string
}

// Params is the request-scoped list query: page window, recognized filter
// values keyed by request key, and the requested sort.
type Params struct {
	Page      int
	Limit     int
	Filters   map[string]string
	SortBy    string
	SortOrder string
}

// Clauses is the engine-agnostic output of Build. Where and OrderBy are SQL
// fragments ("" when empty); Args holds only the filter values, numbered from
// $1. Callers append LIMIT/OFFSET placeholders starting at len(Args)+1.
type Clauses struct {
	Where   string
	OrderBy string
	Args    []any
	Limit   int
	Offset  int
}

// FromRequest extracts list parameters from the query string, collecting only
// the filter keys named by the schema. Absent page/limit fall back to defaults;
// non-numeric values are rejected.
func FromRequest(q url.Values, s Schema) (Params, error) {
	p := Params{
		Page:      1,
		Limit:     DefaultLimit,
		Filters:   make(map[string]string),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, ErrInvalidPage
		}
		p.Page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, ErrInvalidLimit
		}
		p.Limit = n
	}

	for key := range s.Filters {
		if v := q.Get(key); v != "" {
			p.Filters[key] = v
		}
	}
	return p, nil
}

// Build validates the params against the schema and assembles the clauses.
func (s Schema) Build(p Params) (Clauses, error) {
	if p.Page < 1 {
		return Clauses{}, ErrInvalidPage
	}

	limit := ClampLimit(p.Limit)

	// Iterate recognized keys in sorted order so placeholder numbering is
	// stable for a given filter set.
	keys := make([]string, 0, len(p.Filters))
	for key := range p.Filters {
		if _, ok := s.Filters[key]; ok {
			keys = append(keys, key)
		}
		// Unrecognized keys are ignored, never interpolated.
	}
	sort.Strings(keys)

	var (
		conds []string
		args  []any
	)
	for _, key := range keys {
		f := s.Filters[key]
		raw := p.Filters[key]

		val := any(raw)
		if f.Transform != nil {
			v, err := f.Transform(raw)
			if err != nil {
				return Clauses{}, fmt.Errorf("%w for %q: %v", ErrInvalidFilter, key, err)
			}
			val = v
		}
		if f.Op == OpILike {
			val = "%" + raw + "%"
		}

		args = append(args, val)
		ph := fmt.Sprintf("$%d", len(args))

		switch {
		case f.Raw != "":
			conds = append(conds, fmt.Sprintf(f.Raw, ph))
		case f.Op == OpILike:
			parts := make([]string, len(f.Columns))
			for i, col := range f.Columns {
				parts[i] = fmt.Sprintf("%s ILIKE %s", col, ph)
			}
			cond := strings.Join(parts, " OR ")
			if len(parts) > 1 {
				cond = "(" + cond + ")"
			}
			conds = append(conds, cond)
		case f.Op == OpGte:
			conds = append(conds, fmt.Sprintf("%s >= %s", f.Columns[0], ph))
		case f.Op == OpLte:
			conds = append(conds, fmt.Sprintf("%s <= %s", f.Columns[0], ph))
		default:
			conds = append(conds, fmt.Sprintf("%s = %s", f.Columns[0], ph))
		}
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	sortCol := s.DefaultSort
	if p.SortBy != "" {
		col, ok := s.SortFields[p.SortBy]
		if !ok {
			return Clauses{}, ErrInvalidSort
		}
		sortCol = col
	}

	dir := strings.ToUpper(s.DefaultOrder)
	if dir == "" {
		dir = "DESC"
	}
	switch strings.ToLower(p.SortOrder) {
	case "":
	case "asc":
		dir = "ASC"
	case "desc":
		dir = "DESC"
	default:
		return Clauses{}, ErrInvalidSort
	}

	orderBy := ""
	if sortCol != "" {
		orderBy = fmt.Sprintf("ORDER BY %s %s", sortCol, dir)
	}

	return Clauses{
		Where:   where,
		OrderBy: orderBy,
		Args:    args,
		Limit:   limit,
		Offset:  (p.Page - 1) * limit,
	}, nil
}

// ClampLimit returns the effective page size for a requested limit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ActiveFlag maps the conventional "active"/"inactive" status filter onto a
// boolean bind value.
func ActiveFlag(raw string) (any, error) {
	switch raw {
	case "active":
		return true, nil
	case "inactive":
		return false, nil
	default:
		return nil, fmt.Errorf("expected active or inactive, got %q", raw)
	}
}
