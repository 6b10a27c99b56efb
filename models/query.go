package models

// FilterOp is one arm of the query planner's filter algebra.
type FilterOp int

const (
	OpEquals FilterOp = iota
	OpNotEquals
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLike
	OpIn
	OpIsNull
	OpIsNotNull
	OpBetween
)

// Filter is one clause of a dynamic WHERE composition.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any   // Equals/NotEquals/<.../Like
	Values []any // In, Between (expects exactly 2 values)
}

// Equals builds an Equals filter.
func Equals(column string, value any) Filter { return Filter{Column: column, Op: OpEquals, Value: value} }

// NotEquals builds a NotEquals filter.
func NotEquals(column string, value any) Filter { return Filter{Column: column, Op: OpNotEquals, Value: value} }

// Like builds a Like filter. The caller's pattern is sanitized by the query
// planner before use.
func Like(column, pattern string) Filter { return Filter{Column: column, Op: OpLike, Value: pattern} }

// In builds an In filter.
func In(column string, values ...any) Filter { return Filter{Column: column, Op: OpIn, Values: values} }

// Between builds a Between filter over exactly two bounds.
func Between(column string, low, high any) Filter {
	return Filter{Column: column, Op: OpBetween, Values: []any{low, high}}
}

// IsNull builds an IsNull filter.
func IsNull(column string) Filter { return Filter{Column: column, Op: OpIsNull} }

// IsNotNull builds an IsNotNull filter.
func IsNotNull(column string) Filter { return Filter{Column: column, Op: OpIsNotNull} }

// SortDirection is the direction of a SortColumn.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// SortColumn is one ORDER BY clause component. Column is normally a bare
// column name, but may be a raw SQL expression (e.g. a CASE WHEN ranking
// key) containing "?" placeholders; Args supplies their bound values in
// left-to-right order so the expression never needs caller input spliced
// directly into the query text.
type SortColumn struct {
	Column          string
	Direction       SortDirection
	CaseInsensitive bool
	Args            []any
}

// Desc returns a copy of the sort column with Direction set to DESC.
func (s SortColumn) Desc() SortColumn { s.Direction = SortDesc; return s }

// CaseInsensitiveSort returns a copy of the sort column with COLLATE NOCASE
// requested.
func (s SortColumn) CaseInsensitiveSort() SortColumn { s.CaseInsensitive = true; return s }

// NewSort builds an ascending SortColumn.
func NewSort(column string) SortColumn { return SortColumn{Column: column, Direction: SortAsc} }

// Pagination describes a page window; the zero value is NOT the default —
// use DefaultPagination for that.
type Pagination struct {
	Page     int
	PageSize int
}

// DefaultPagination matches the reference implementation's default: page 0,
// 50 rows per page.
func DefaultPagination() Pagination { return Pagination{Page: 0, PageSize: 50} }

// Offset returns the SQL OFFSET for this page.
func (p Pagination) Offset() int { return p.Page * p.PageSize }

// Limit returns the SQL LIMIT for this page.
func (p Pagination) Limit() int { return p.PageSize }

// TotalPages returns the ceiling-divided page count for totalCount rows.
func (p Pagination) TotalPages(totalCount int) int {
	if p.PageSize <= 0 {
		return 0
	}
	return (totalCount + p.PageSize - 1) / p.PageSize
}
