package repository

import "fmt"

// DateRange is an optional epoch-millisecond window on a timestamp
// column. Predicates are composed with placeholders, never by splicing
// values into SQL.
type DateRange struct {
	Start *int64
	End   *int64
}

func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Clause renders " AND col >= $n AND col <= $m" fragments starting at
// the given placeholder number and returns the matching args.
func (r DateRange) Clause(column string, nextArg int) (string, []any) {
	var sql string
	var args []any
	if r.Start != nil {
		sql += fmt.Sprintf(" AND %s >= $%d", column, nextArg)
		args = append(args, *r.Start)
		nextArg++
	}
	if r.End != nil {
		sql += fmt.Sprintf(" AND %s <= $%d", column, nextArg)
		args = append(args, *r.End)
	}
	return sql, args
}
