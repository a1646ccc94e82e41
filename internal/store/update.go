package store

import (
	"fmt"
	"strings"
)

const touchUpdatedAt = "updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')"

// updateBuilder renders a single UPDATE statement from an allow-list of
// columns. Values are always bound as parameters.
type updateBuilder struct {
	table   string
	allowed map[string]struct{}
	sets    []string
	args    []any
	err     error
}

func newUpdateBuilder(table string, allowed ...string) *updateBuilder {
	cols := make(map[string]struct{}, len(allowed))
	for _, col := range allowed {
		cols[col] = struct{}{}
	}
	return &updateBuilder{table: table, allowed: cols}
}

func (b *updateBuilder) set(column string, value any) {
	if b.err != nil {
		return
	}
	if _, ok := b.allowed[column]; !ok {
		b.err = fmt.Errorf("column %q is not updatable on %s", column, b.table)
		return
	}
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

// build returns the statement and its arguments; id is bound last.
func (b *updateBuilder) build(id int, returning string) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(b.sets) == 0 {
		return "", nil, ErrEmptyPatch
	}

	args := append(append([]any(nil), b.args...), id)
	query := fmt.Sprintf(
		"UPDATE %s SET %s, %s WHERE id = $%d RETURNING %s",
		b.table,
		strings.Join(b.sets, ", "),
		touchUpdatedAt,
		len(args),
		returning,
	)
	return query, args, nil
}
