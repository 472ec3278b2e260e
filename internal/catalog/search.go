package catalog

import (
	"fmt"
	"strings"
)

type SearchParams struct {
	Query     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string // name | price | rating
	SortOrder string // asc | desc
}

const productColumns = `p.id, p.name, p.price, p.original_price, p.image, p.images,
	p.category_id, c.name, p.description, p.features, p.rating, p.reviews,
	p.in_stock, p.created_at, p.updated_at`

// buildSearchQuery assembles the filtered product query. Sort column and
// direction come from a whitelist, never from the raw request.
func buildSearchQuery(p SearchParams) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.Query != "" {
		ph := arg("%" + p.Query + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", ph, ph))
	}
	if p.Category != "" {
		where = append(where, "c.name = "+arg(p.Category))
	}
	if p.MinPrice != nil {
		where = append(where, "p.price >= "+arg(*p.MinPrice))
	}
	if p.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(*p.MaxPrice))
	}

	q := `SELECT ` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + sortColumn(p.SortBy) + " " + sortDirection(p.SortOrder)
	return q, args
}

func sortColumn(s string) string {
	switch s {
	case "price":
		return "p.price"
	case "rating":
		return "p.rating"
	default:
		return "p.name"
	}
}

func sortDirection(s string) string {
	if strings.EqualFold(s, "desc") {
		return "DESC"
	}
	return "ASC"
}
