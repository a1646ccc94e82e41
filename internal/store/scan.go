package store

import (
	"database/sql"
	"errors"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOne runs scan against a single-row result and maps sql.ErrNoRows.
func scanOne[T any](row rowScanner, scan func(rowScanner) (T, error)) (T, error) {
	value, err := scan(row)
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, translateError(err)
	}
	return value, nil
}

func scanAll[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// nullableString stores empty optional strings as NULL.
func nullableString(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
