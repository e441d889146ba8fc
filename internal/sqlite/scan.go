package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// fetchOne runs query and hydrates the single row with scan. A missing row
// returns types.ErrNotFound.
func fetchOne[T any](ex Executor, scan func(scanner) (*T, error), query string, args ...any) (*T, error) {
	row, err := ex.FetchOne(query, args...)
	if err != nil {
		return nil, err
	}
	v, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, classifyError(err)
	}
	return v, nil
}

// fetchAll runs query and hydrates every row with scan. The rows are closed
// before returning, so the connection is free for the next statement. The
// result is never nil.
func fetchAll[T any](ex Executor, scan func(scanner) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := ex.FetchAll(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, classifyError(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err)
	}
	return out, nil
}

// requireAffected turns a zero-row update or delete into types.ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// insertID returns the id generated by an INSERT.
func insertID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading generated id: %w", err)
	}
	return id, nil
}

// Layouts SQLite and the driver use for DATETIME text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// timestamp is a scan target for DATETIME columns. The driver may hand back
// either a time.Time or the stored text, depending on how the value was
// written.
type timestamp struct {
	Time time.Time
}

// Scan implements sql.Scanner.
func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.Time = time.Time{}
		return nil
	case time.Time:
		ts.Time = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case int64:
		ts.Time = time.Unix(v, 0).UTC()
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("parsing timestamp %q", s)
}

// nullString converts an optional Go string to a column value.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func float64Ptr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

// jsonOrDefault returns the stored JSON text, or def when the column is
// NULL.
func jsonOrDefault(ns sql.NullString, def string) string {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return def
	}
	return ns.String
}

// annotate adds context to err unless it is nil or types.ErrNotFound, which
// callers match directly.
func annotate(err error, format string, args ...any) error {
	if err == nil || errors.Is(err, types.ErrNotFound) {
		return err
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// nullIfEmpty stores an empty optional text column as NULL.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
