// Package sqlstore implements the repositories over the hosted SQL store.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"rifas-admin/internal/repositories"
)

// scanPageSize bounds each range request on full-table reads.
var scanPageSize = 1000

// timeLayout is fixed width so stored text sorts in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// scanPaged runs query with LIMIT/OFFSET windows until a short page comes back.
func scanPaged[T any](ctx context.Context, db *sql.DB, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	var out []T
	for offset := 0; ; offset += scanPageSize {
		pageArgs := append(append([]any{}, args...), scanPageSize, offset)
		rows, err := db.QueryContext(ctx, query+" LIMIT ? OFFSET ?", pageArgs...)
		if err != nil {
			return nil, err
		}
		n := 0
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, v)
			n++
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
		if n < scanPageSize {
			return out, nil
		}
	}
}

// checkAffected turns "no row updated" into ErrNotFound.
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// duplicate maps a unique constraint violation to ErrDuplicate.
// Both drivers report the constraint in the message.
func duplicate(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return repositories.ErrDuplicate
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}
	return err
}
