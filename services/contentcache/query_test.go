package contentcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xtreamsync/models"
)

func TestSanitizeLikePatternEscapesSpecialChars(t *testing.T) {
	assert.Equal(t, `50\%\_off`, sanitizeLikePattern(`50%_off`))
	assert.Equal(t, `back\\slash`, sanitizeLikePattern(`back\slash`))
}

func TestBuildWhereClauseAllOperators(t *testing.T) {
	where, args := buildWhereClause([]models.Filter{
		models.Equals("a", 1),
		models.NotEquals("b", 2),
		models.In("c", 3, 4),
		models.IsNull("d"),
		models.IsNotNull("e"),
		models.Between("f", 1, 10),
	})
	assert.Contains(t, where, "a = ?")
	assert.Contains(t, where, "b != ?")
	assert.Contains(t, where, "c IN (?,?)")
	assert.Contains(t, where, "d IS NULL")
	assert.Contains(t, where, "e IS NOT NULL")
	assert.Contains(t, where, "f BETWEEN ? AND ?")
	assert.Equal(t, []any{1, 2, 3, 4, 1, 10}, args)
}

func TestBuildWhereClauseEmptyInYieldsFalseCondition(t *testing.T) {
	where, args := buildWhereClause([]models.Filter{models.In("c")})
	assert.Equal(t, "0", where)
	assert.Empty(t, args)
}

func TestBuildWhereClauseEmptyFiltersYieldsEmpty(t *testing.T) {
	where, args := buildWhereClause(nil)
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestBuildOrderByCaseInsensitiveAndDirection(t *testing.T) {
	orderBy, args := buildOrderBy([]models.SortColumn{
		models.NewSort("name").CaseInsensitiveSort(),
		models.NewSort("year").Desc(),
	})
	assert.Equal(t, "name COLLATE NOCASE ASC, year DESC", orderBy)
	assert.Empty(t, args)
}

func TestBuildOrderByEmpty(t *testing.T) {
	orderBy, args := buildOrderBy(nil)
	assert.Empty(t, orderBy)
	assert.Empty(t, args)
}

func TestBuildOrderByRawExpressionBindsArgsInOrder(t *testing.T) {
	orderBy, args := buildOrderBy([]models.SortColumn{
		{Column: "CASE WHEN name LIKE ? ESCAPE '\\' THEN 0 ELSE 1 END", Direction: models.SortAsc, Args: []any{"ab%"}},
		models.NewSort("name").CaseInsensitiveSort(),
	})
	assert.Equal(t, "CASE WHEN name LIKE ? ESCAPE '\\' THEN 0 ELSE 1 END ASC, name COLLATE NOCASE ASC", orderBy)
	assert.Equal(t, []any{"ab%"}, args)
}

func TestComposeSelectAssemblesFullQuery(t *testing.T) {
	page := models.Pagination{Page: 1, PageSize: 20}
	query, args := composeSelect("SELECT * FROM t", []models.Filter{models.Equals("a", 1)}, []models.SortColumn{models.NewSort("a")}, &page)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? ORDER BY a ASC LIMIT 20 OFFSET 20", query)
	assert.Equal(t, []any{1}, args)
}

func TestComposeCountAssemblesQuery(t *testing.T) {
	query, args := composeCount("t", []models.Filter{models.Equals("a", 1)})
	assert.Equal(t, "SELECT COUNT(1) FROM t WHERE a = ?", query)
	assert.Equal(t, []any{1}, args)
}

func TestPlaceholdersAndInClause(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?,?,?", placeholders(3))

	ph, args := inClause([]int64{1, 2}, "p1")
	assert.Equal(t, "?,?", ph)
	assert.Equal(t, []any{"p1", int64(1), int64(2)}, args)
}

func TestPrefixColumns(t *testing.T) {
	got := prefixColumns("ch", "a, b, c")
	assert.Equal(t, "ch.a, ch.b, ch.c", got)
}

func TestSQLLimitOffset(t *testing.T) {
	got := sqlLimitOffset(models.Pagination{Page: 2, PageSize: 10})
	assert.Equal(t, " LIMIT 10 OFFSET 20", got)
}
