package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationOffsetAndLimit(t *testing.T) {
	p := Pagination{Page: 2, PageSize: 25}
	assert.Equal(t, 50, p.Offset())
	assert.Equal(t, 25, p.Limit())
}

func TestDefaultPagination(t *testing.T) {
	p := DefaultPagination()
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, 50, p.PageSize)
}

func TestPaginationTotalPagesRoundsUp(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 20}
	assert.Equal(t, 3, p.TotalPages(41))
	assert.Equal(t, 2, p.TotalPages(40))
	assert.Equal(t, 0, p.TotalPages(0))
}

func TestPaginationTotalPagesZeroSize(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 0}
	assert.Equal(t, 0, p.TotalPages(10))
}

func TestFilterBuilders(t *testing.T) {
	assert.Equal(t, Filter{Column: "a", Op: OpEquals, Value: 1}, Equals("a", 1))
	assert.Equal(t, Filter{Column: "a", Op: OpNotEquals, Value: 1}, NotEquals("a", 1))
	assert.Equal(t, Filter{Column: "a", Op: OpLike, Value: "x"}, Like("a", "x"))
	assert.Equal(t, Filter{Column: "a", Op: OpIn, Values: []any{1, 2}}, In("a", 1, 2))
	assert.Equal(t, Filter{Column: "a", Op: OpBetween, Values: []any{1, 10}}, Between("a", 1, 10))
	assert.Equal(t, Filter{Column: "a", Op: OpIsNull}, IsNull("a"))
	assert.Equal(t, Filter{Column: "a", Op: OpIsNotNull}, IsNotNull("a"))
}

func TestSortColumnBuilders(t *testing.T) {
	s := NewSort("name")
	assert.Equal(t, SortColumn{Column: "name", Direction: SortAsc}, s)

	desc := s.Desc()
	assert.Equal(t, SortDesc, desc.Direction)
	assert.Equal(t, SortAsc, s.Direction, "Desc must not mutate the receiver")

	ci := s.CaseInsensitiveSort()
	assert.True(t, ci.CaseInsensitive)
	assert.False(t, s.CaseInsensitive, "CaseInsensitiveSort must not mutate the receiver")
}
