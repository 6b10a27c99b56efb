package contentcache

import (
	"fmt"
	"strings"

	"xtreamsync/models"
)

// sqlLimitOffset renders " LIMIT n OFFSET m" for a pagination window.
func sqlLimitOffset(page models.Pagination) string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit(), page.Offset())
}

// prefixColumns rewrites a comma-separated column list (as used in the
// *Columns constants) to be qualified by alias, for queries that join the
// base table back from an FTS shadow.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// placeholders returns "?,?,...,?" with n entries.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// inClause builds the "?,?,..." placeholder fragment for an IN clause over
// ids, returning the full positional argument list with profileID first.
func inClause(ids []int64, profileID string) (string, []any) {
	args := make([]any, 0, len(ids)+1)
	args = append(args, profileID)
	for _, id := range ids {
		args = append(args, id)
	}
	return placeholders(len(ids)), args
}
