package db

import (
	"fmt"
	"strings"
)

// SelectQuery composes a conjunctive SELECT with positional ($n) arguments.
// Clauses are appended in call order; every clause narrows the result set.
type SelectQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
	limit   int
}

// NewSelect creates a SelectQuery over table returning cols.
func NewSelect(table, cols string) *SelectQuery {
	return &SelectQuery{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Idx returns the next available parameter index.
func (q *SelectQuery) Idx() int { return q.idx }

// Add appends a raw WHERE clause fragment (without leading "AND").
func (q *SelectQuery) Add(clause string, args ...interface{}) *SelectQuery {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
	return q
}

// Eq adds an exact equality match on column.
func (q *SelectQuery) Eq(column string, value interface{}) *SelectQuery {
	return q.Add(fmt.Sprintf("%s = $%d", column, q.idx), value)
}

// IsNull restricts column to NULL.
func (q *SelectQuery) IsNull(column string) *SelectQuery {
	return q.Add(column + " IS NULL")
}

// Contains adds a case-insensitive substring match. LIKE wildcards in value
// are escaped so they match literally.
func (q *SelectQuery) Contains(column, value string) *SelectQuery {
	return q.Add(fmt.Sprintf("%s ILIKE $%d", column, q.idx), "%"+EscapeLike(value)+"%")
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *SelectQuery) OrderBy(orderBy string) *SelectQuery {
	q.orderBy = orderBy
	return q
}

// Limit caps the number of rows; n <= 0 means no limit.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	q.limit = n
	return q
}

// SQL renders the statement.
func (q *SelectQuery) SQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	if q.limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", q.idx)
	}
	return sql
}

// Args returns the bound arguments matching SQL.
func (q *SelectQuery) Args() []interface{} {
	if q.limit <= 0 {
		return q.args
	}
	args := make([]interface{}, len(q.args)+1)
	copy(args, q.args)
	args[len(q.args)] = q.limit
	return args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE/ILIKE metacharacters using the default backslash escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
