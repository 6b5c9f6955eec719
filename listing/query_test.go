package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceRange(t *testing.T) {
	lo, hi := ParsePriceRange("100-500")
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, 100.0, *lo)
	assert.Equal(t, 500.0, *hi)

	lo, hi = ParsePriceRange("250")
	require.NotNil(t, lo)
	assert.Nil(t, hi)

	lo, hi = ParsePriceRange("-800")
	assert.Nil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, 800.0, *hi)

	lo, hi = ParsePriceRange("abc-xyz")
	assert.Nil(t, lo)
	assert.Nil(t, hi)
}

func TestBuildFilter(t *testing.T) {
	f := BuildFilter(Query{Search: "  big   room ", Available: "False", City: " Pune "})
	assert.Equal(t, "big room", f.Search)
	assert.Equal(t, "Pune", f.City)
	require.NotNil(t, f.Available)
	assert.False(t, *f.Available)

	assert.Nil(t, BuildFilter(Query{}).Available)
}

func TestPaging(t *testing.T) {
	page, limit := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultLimit, limit)

	_, limit = normalizePage(1, 1000)
	assert.Equal(t, maxLimit, limit)

	assert.Equal(t, 0, totalPages(0, 10))
	assert.Equal(t, 1, totalPages(10, 10))
	assert.Equal(t, 2, totalPages(11, 10))
}
