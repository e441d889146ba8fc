package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// classifyError wraps a driver error with the taxonomy sentinel it belongs
// to. The driver error stays in the chain, so callers can match either the
// sentinel or the *sqlite.Error.
func classifyError(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", types.ErrDuplicate, err)
	case isConstraintError(err):
		return fmt.Errorf("%w: %w", types.ErrConstraint, err)
	case isUnavailableError(err):
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	default:
		return err
	}
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

func isUniqueViolation(err error) bool {
	if code, ok := sqliteCode(err); ok {
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isConstraintError(err error) bool {
	if code, ok := sqliteCode(err); ok {
		// Extended codes keep the primary code in the low byte.
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}

func isUnavailableError(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
		sqlite3.SQLITE_IOERR, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_FULL,
		sqlite3.SQLITE_NOTADB:
		return true
	}
	return false
}
