package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchQueryNoFilters(t *testing.T) {
	q, args := buildSearchQuery(SearchParams{})
	assert.NotContains(t, q, "WHERE")
	assert.Contains(t, q, "ORDER BY p.name ASC")
	assert.Empty(t, args)
}

func TestBuildSearchQueryAllFilters(t *testing.T) {
	min, max := 10.0, 99.5
	q, args := buildSearchQuery(SearchParams{
		Query:     "headphones",
		Category:  "Audio",
		MinPrice:  &min,
		MaxPrice:  &max,
		SortBy:    "price",
		SortOrder: "desc",
	})
	assert.Contains(t, q, "p.name ILIKE $1 OR p.description ILIKE $1")
	assert.Contains(t, q, "c.name = $2")
	assert.Contains(t, q, "p.price >= $3")
	assert.Contains(t, q, "p.price <= $4")
	assert.Contains(t, q, "ORDER BY p.price DESC")
	assert.Equal(t, []any{"%headphones%", "Audio", 10.0, 99.5}, args)
}

func TestBuildSearchQuerySortWhitelist(t *testing.T) {
	q, _ := buildSearchQuery(SearchParams{SortBy: "rating"})
	assert.Contains(t, q, "ORDER BY p.rating ASC")

	// anything off the whitelist falls back to name ascending
	q, _ = buildSearchQuery(SearchParams{SortBy: "price; DROP TABLE products", SortOrder: "sideways"})
	assert.Contains(t, q, "ORDER BY p.name ASC")
}

func TestBuildSearchQueryPriceOnly(t *testing.T) {
	min := 5.0
	q, args := buildSearchQuery(SearchParams{MinPrice: &min})
	assert.Contains(t, q, "WHERE p.price >= $1")
	assert.Equal(t, []any{5.0}, args)
}
