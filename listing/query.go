package listing

import (
	"math"
	"strconv"
	"strings"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// NormalizeSearch trims s and collapses inner whitespace runs to one space.
func NormalizeSearch(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParsePriceRange parses "min-max". Either side may be empty or unparsable,
// in which case that bound is open.
func ParsePriceRange(s string) (minPrice, maxPrice *float64) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	lo, hi, found := strings.Cut(s, "-")
	if v, err := strconv.ParseFloat(strings.TrimSpace(lo), 64); err == nil {
		minPrice = &v
	}
	if found {
		if v, err := strconv.ParseFloat(strings.TrimSpace(hi), 64); err == nil {
			maxPrice = &v
		}
	}
	return minPrice, maxPrice
}

// BuildFilter turns a raw query into a Filter.
func BuildFilter(q Query) Filter {
	f := Filter{
		Search:   NormalizeSearch(q.Search),
		Category: strings.TrimSpace(q.Category),
		City:     strings.TrimSpace(q.City),
	}
	f.MinPrice, f.MaxPrice = ParsePriceRange(q.Price)
	if a := strings.TrimSpace(q.Available); a != "" {
		v := strings.EqualFold(a, "true")
		f.Available = &v
	}
	return f
}

// normalizePage applies the default and maximum page size.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func totalPages(count int64, limit int) int {
	if count <= 0 {
		return 0
	}
	return int(math.Ceil(float64(count) / float64(limit)))
}
