package contentcache

import (
	"fmt"
	"strings"

	"xtreamsync/models"
)

// sanitizeLikePattern escapes backslash, percent, and underscore (in that
// order) so a caller-supplied substring can be used safely inside a LIKE
// pattern with ESCAPE '\'.
func sanitizeLikePattern(pattern string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(pattern)
}

// buildWhereClause turns the filter algebra into a parameterized WHERE
// fragment (without the leading "WHERE") and its positional parameters.
func buildWhereClause(filters []models.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	var clauses []string
	var args []any
	for _, f := range filters {
		switch f.Op {
		case models.OpEquals:
			clauses = append(clauses, fmt.Sprintf("%s = ?", f.Column))
			args = append(args, f.Value)
		case models.OpNotEquals:
			clauses = append(clauses, fmt.Sprintf("%s != ?", f.Column))
			args = append(args, f.Value)
		case models.OpLessThan:
			clauses = append(clauses, fmt.Sprintf("%s < ?", f.Column))
			args = append(args, f.Value)
		case models.OpLessThanOrEqual:
			clauses = append(clauses, fmt.Sprintf("%s <= ?", f.Column))
			args = append(args, f.Value)
		case models.OpGreaterThan:
			clauses = append(clauses, fmt.Sprintf("%s > ?", f.Column))
			args = append(args, f.Value)
		case models.OpGreaterThanOrEqual:
			clauses = append(clauses, fmt.Sprintf("%s >= ?", f.Column))
			args = append(args, f.Value)
		case models.OpLike:
			pattern, _ := f.Value.(string)
			clauses = append(clauses, fmt.Sprintf("%s LIKE ? ESCAPE '\\'", f.Column))
			args = append(args, "%"+sanitizeLikePattern(pattern)+"%")
		case models.OpIn:
			if len(f.Values) == 0 {
				clauses = append(clauses, "0")
				continue
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Values)), ",")
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", f.Column, placeholders))
			args = append(args, f.Values...)
		case models.OpIsNull:
			clauses = append(clauses, fmt.Sprintf("%s IS NULL", f.Column))
		case models.OpIsNotNull:
			clauses = append(clauses, fmt.Sprintf("%s IS NOT NULL", f.Column))
		case models.OpBetween:
			if len(f.Values) == 2 {
				clauses = append(clauses, fmt.Sprintf("%s BETWEEN ? AND ?", f.Column))
				args = append(args, f.Values[0], f.Values[1])
			}
		}
	}
	return strings.Join(clauses, " AND "), args
}

// buildOrderBy joins sort columns into an ORDER BY fragment (without the
// leading "ORDER BY") plus the positional parameters referenced by any
// placeholder ("?") in a raw-expression column, in the same left-to-right
// order they appear in the returned fragment. An empty input yields an
// empty string and nil args.
func buildOrderBy(sortBy []models.SortColumn) (string, []any) {
	if len(sortBy) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sortBy))
	var args []any
	for _, s := range sortBy {
		col := s.Column
		if s.CaseInsensitive {
			col += " COLLATE NOCASE"
		}
		dir := s.Direction
		if dir == "" {
			dir = models.SortAsc
		}
		parts = append(parts, fmt.Sprintf("%s %s", col, dir))
		args = append(args, s.Args...)
	}
	return strings.Join(parts, ", "), args
}

// composeSelect builds "<base> [WHERE ...] [ORDER BY ...] [LIMIT ... OFFSET ...]".
func composeSelect(base string, filters []models.Filter, sortBy []models.SortColumn, page *models.Pagination) (string, []any) {
	query := base
	where, args := buildWhereClause(filters)
	if where != "" {
		query += " WHERE " + where
	}
	orderBy, orderArgs := buildOrderBy(sortBy)
	if orderBy != "" {
		query += " ORDER BY " + orderBy
		args = append(args, orderArgs...)
	}
	if page != nil {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit(), page.Offset())
	}
	return query, args
}

// prefixRank builds a synthetic sort key that orders exact-prefix matches
// of query against name ahead of other matches, the default ranking used
// by the per-type search functions when the caller requests no explicit
// sort. The prefix pattern is bound as a query parameter rather than
// spliced into the expression text, so a query containing a quote can't
// break out of the surrounding SQL.
func prefixRank(query string) models.SortColumn {
	return models.SortColumn{
		Column:    `CASE WHEN name LIKE ? ESCAPE '\' THEN 0 ELSE 1 END`,
		Direction: models.SortAsc,
		Args:      []any{sanitizeLikePattern(query) + "%"},
	}
}

// composeCount builds "SELECT COUNT(1) FROM <table> [WHERE ...]" sharing the
// same filters as the paginated query it accompanies.
func composeCount(table string, filters []models.Filter) (string, []any) {
	query := "SELECT COUNT(1) FROM " + table
	where, args := buildWhereClause(filters)
	if where != "" {
		query += " WHERE " + where
	}
	return query, args
}
