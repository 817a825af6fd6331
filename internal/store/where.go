package store

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/snepalysis/internal/core"
)

// WhereBuilder assembles a parameterized WHERE clause. Conditions are joined
// with AND; placeholders are numbered from $1.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $n". Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", quoteIdentifier(column), wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
	return wb
}

// AddScope constrains country and state unless the scope leaves them open.
func (wb *WhereBuilder) AddScope(scope core.Scope) *WhereBuilder {
	if scope.HasCountry() {
		wb.Add("country", scope.Country)
	}
	if scope.HasState() {
		wb.Add("state", scope.State)
	}
	return wb
}

// Build returns the clause with a leading space, or "" with nil args when
// there are no conditions.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
