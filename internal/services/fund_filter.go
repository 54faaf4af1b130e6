package services

import (
	"strings"

	"pixiu/internal/models"
)

// buildFundWhere maps a filter onto a WHERE clause with bound parameters.
// Filter values are never interpolated into the query text: the clause is
// assembled from a fixed set of predicates and every user-controlled value
// travels as a placeholder argument, so a quote or semicolon in a source or
// class name is just a literal string to match against.
func buildFundWhere(f models.FundFilter) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 3+len(f.Classes))

	sb.WriteString("WHERE timestamp BETWEEN ? AND ?")
	args = append(args, f.From, f.To)

	if f.Source != "" {
		sb.WriteString(" AND source = ?")
		args = append(args, f.Source)
	}

	if len(f.Classes) > 0 {
		sb.WriteString(" AND class IN (")
		for i, class := range f.Classes {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, class)
		}
		sb.WriteString(")")
	}

	return sb.String(), args
}
