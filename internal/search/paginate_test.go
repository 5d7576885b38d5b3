package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0))
	assert.Equal(t, 1, ClampPage(-5))
	assert.Equal(t, 1, ClampPage(1))
	assert.Equal(t, 42, ClampPage(42))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0, MaxLimit))
	assert.Equal(t, DefaultLimit, ClampLimit(-1, MaxLimit))
	assert.Equal(t, 1, ClampLimit(1, MaxLimit))
	assert.Equal(t, MaxLimit, ClampLimit(1000, MaxLimit))
	assert.Equal(t, 50, ClampLimit(1000, 50))
	assert.Equal(t, MaxLimit, ClampLimit(1000, 0))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 20))
	assert.Equal(t, 20, Offset(2, 20))
	assert.Equal(t, 6, Offset(3, 3))
}

func TestPaginateInvariants(t *testing.T) {
	for _, tc := range []struct {
		page, limit, total int
		totalPages         int
		hasNext, hasPrev   bool
	}{
		{1, 3, 5, 2, true, false},
		{2, 3, 5, 2, false, true},
		{1, 20, 0, 0, false, false},
		{3, 20, 0, 0, false, true},
		{1, 1, 1, 1, false, false},
		{1, 10, 10, 1, false, false},
		{1, 10, 11, 2, true, false},
		{5, 10, 100, 10, true, true},
	} {
		p := Paginate(tc.page, tc.limit, tc.total)
		assert.Equal(t, tc.page, p.Page)
		assert.Equal(t, tc.limit, p.Limit)
		assert.Equal(t, tc.total, p.Total)
		assert.Equal(t, tc.totalPages, p.TotalPages, "total=%d limit=%d", tc.total, tc.limit)
		assert.Equal(t, tc.hasNext, p.HasNext)
		assert.Equal(t, tc.hasPrev, p.HasPrev)
	}
}

func TestPaginateCeilDivision(t *testing.T) {
	for total := 0; total <= 50; total++ {
		for limit := 1; limit <= 7; limit++ {
			p := Paginate(1, limit, total)
			expected := 0
			if total > 0 {
				expected = (total + limit - 1) / limit
			}
			assert.Equal(t, expected, p.TotalPages)
		}
	}
}
