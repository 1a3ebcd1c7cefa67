package postgres

import (
	"fmt"
	"strings"

	"digest-extractor/internal/repository"
)

// LogQueryBuilder builds WHERE clauses for extraction log queries.
// The same clause is shared between the COUNT and the page SELECT.
type LogQueryBuilder struct{}

// NewLogQueryBuilder creates a new query builder instance.
func NewLogQueryBuilder() *LogQueryBuilder {
	return &LogQueryBuilder{}
}

// BuildWhereClause returns the WHERE clause (empty when q has no filters) and its
// positional arguments, numbered from $1.
func (qb *LogQueryBuilder) BuildWhereClause(q repository.LogQuery) (clause string, args []interface{}) {
	var conditions []string
	next := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if q.Level != "" {
		next("level = $%d", string(q.Level))
	}
	if q.Module != "" {
		next("module = $%d", q.Module)
	}
	if q.JobID != "" {
		next("job_id = $%d", q.JobID)
	}
	if q.From != nil {
		next("ts >= $%d", *q.From)
	}
	if q.To != nil {
		next("ts < $%d", *q.To)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		next("message ILIKE $%d", "%"+escapeLike(s)+"%")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
