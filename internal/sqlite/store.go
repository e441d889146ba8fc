// Package sqlite implements the world store on a single SQLite data file:
// the storage handle, the schema, and one repository per entity kind.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/worldstore/pkg/types"
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

// Connection pragmas. They are set through the DSN so a reopened connection
// gets them too, and applied again explicitly after the first ping.
var connectionPragmas = []string{
	"foreign_keys = ON",
	"journal_mode = WAL",
	"busy_timeout = 5000",
	"synchronous = NORMAL",
}

// Executor is the statement surface shared by Store and Tx. Repositories
// depend only on Executor, so they work the same inside and outside a
// scoped transaction.
type Executor interface {
	// Exec runs one parameterized statement.
	Exec(query string, args ...any) (sql.Result, error)

	// ExecBatch applies one statement to every argument set atomically.
	ExecBatch(query string, argSets [][]any) error

	// FetchOne runs a query expected to return at most one row.
	FetchOne(query string, args ...any) (*sql.Row, error)

	// FetchAll runs a query returning any number of rows. The caller must
	// close the rows before issuing another statement.
	FetchAll(query string, args ...any) (*sql.Rows, error)

	// LastInsertID returns the id assigned by the most recent insert.
	LastInsertID() int64

	// Transaction runs fn in a scoped transaction. On a Tx it joins the
	// enclosing transaction.
	Transaction(fn func(Executor) error) error

	// Logger returns the logger used for storage diagnostics.
	Logger() *slog.Logger
}

// Compile-time interface checks.
var (
	_ Executor = (*Store)(nil)
	_ Executor = (*Tx)(nil)
)

// Store owns the single physical connection to one data file. The zero
// value is not usable; call NewStore.
//
// The connection is opened lazily by the first statement or by Connect and
// released by Close. Inside a Transaction callback every statement must go
// through the Executor handed to the callback: the store has one
// connection, so a statement on the Store itself would wait for the
// transaction to finish.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex // guards db and closed
	db     *sql.DB
	closed bool

	lastID atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for storage diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a handle for the data file at path without opening it.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Logger returns the store logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// dsn builds the modernc.org/sqlite data source name with pragmas.
func (s *Store) dsn() string {
	params := make([]string, 0, len(connectionPragmas))
	for _, p := range connectionPragmas {
		name, value, _ := strings.Cut(p, " = ")
		params = append(params, fmt.Sprintf("_pragma=%s(%s)", name, value))
	}
	return s.path + "?" + strings.Join(params, "&")
}

// Connect opens the connection if it is not open yet. It is idempotent.
// Failures wrap types.ErrStorageUnavailable. Connect after Close returns
// types.ErrStoreClosed.
func (s *Store) Connect() error {
	_, err := s.conn()
	return err
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrStoreClosed
	}
	if s.db != nil {
		return s.db, nil
	}
	if strings.TrimSpace(s.path) == "" {
		return nil, fmt.Errorf("%w: data file path is required", types.ErrStorageUnavailable)
	}

	db, err := sql.Open(driverName, s.dsn())
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", types.ErrStorageUnavailable, s.path, err)
	}
	// One physical connection shared by every caller; SQLite serializes
	// writers on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: opening %s: %w", types.ErrStorageUnavailable, s.path, err)
	}
	for _, p := range connectionPragmas {
		if _, err := db.Exec("PRAGMA " + p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: setting pragma %s: %w", types.ErrStorageUnavailable, p, err)
		}
	}

	s.db = db
	s.logger.Debug("storage connected", "path", s.path)
	return db, nil
}

// Close releases the connection. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}
	s.logger.Debug("storage closed", "path", s.path)
	return nil
}

// Exec runs one statement in autocommit mode. SQLite applies a statement
// entirely or not at all, so a failed Exec leaves no partial write.
func (s *Store) Exec(query string, args ...any) (sql.Result, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	res, err := db.Exec(query, args...)
	if err != nil {
		s.logger.Error("statement failed", "query", compactQuery(query), "err", err)
		return nil, classifyError(err)
	}
	s.recordInsert(res)
	return res, nil
}

// ExecBatch prepares query once and executes it for each argument set in
// one transaction.
func (s *Store) ExecBatch(query string, argSets [][]any) error {
	return s.Transaction(func(ex Executor) error {
		return ex.ExecBatch(query, argSets)
	})
}

// FetchOne runs a single-row query. A missing row surfaces as
// sql.ErrNoRows from Scan.
func (s *Store) FetchOne(query string, args ...any) (*sql.Row, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return db.QueryRow(query, args...), nil
}

// FetchAll runs a multi-row query.
func (s *Store) FetchAll(query string, args ...any) (*sql.Rows, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		s.logger.Error("query failed", "query", compactQuery(query), "err", err)
		return nil, classifyError(err)
	}
	return rows, nil
}

// LastInsertID returns the id assigned by the most recent insert through
// this store or one of its transactions.
func (s *Store) LastInsertID() int64 {
	return s.lastID.Load()
}

// Transaction runs fn inside BEGIN/COMMIT. The transaction is rolled back
// when fn returns an error or panics; a panic is re-raised after rollback.
func (s *Store) Transaction(fn func(Executor) error) (err error) {
	db, err := s.conn()
	if err != nil {
		return err
	}
	sqlTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", classifyError(err))
	}
	tx := &Tx{store: s, tx: sqlTx}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			s.logger.Warn("transaction rolled back", "panic", p)
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", "err", rbErr)
			}
			s.logger.Warn("transaction rolled back", "err", err)
			return
		}
		if cErr := sqlTx.Commit(); cErr != nil {
			err = fmt.Errorf("committing transaction: %w", classifyError(cErr))
		}
	}()

	return fn(tx)
}

func (s *Store) recordInsert(res sql.Result) {
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		s.lastID.Store(id)
	}
}

// Tx is an Executor bound to one open transaction.
type Tx struct {
	store *Store
	tx    *sql.Tx
}

// Exec runs one statement inside the transaction.
func (t *Tx) Exec(query string, args ...any) (sql.Result, error) {
	res, err := t.tx.Exec(query, args...)
	if err != nil {
		t.store.logger.Error("statement failed", "query", compactQuery(query), "err", err)
		return nil, classifyError(err)
	}
	t.store.recordInsert(res)
	return res, nil
}

// ExecBatch prepares query once and executes it for each argument set.
func (t *Tx) ExecBatch(query string, argSets [][]any) error {
	stmt, err := t.tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("preparing batch: %w", classifyError(err))
	}
	defer stmt.Close()

	for i, args := range argSets {
		res, err := stmt.Exec(args...)
		if err != nil {
			t.store.logger.Error("batch statement failed", "query", compactQuery(query), "index", i, "err", err)
			return fmt.Errorf("batch item %d: %w", i, classifyError(err))
		}
		t.store.recordInsert(res)
	}
	return nil
}

// FetchOne runs a single-row query inside the transaction.
func (t *Tx) FetchOne(query string, args ...any) (*sql.Row, error) {
	return t.tx.QueryRow(query, args...), nil
}

// FetchAll runs a multi-row query inside the transaction.
func (t *Tx) FetchAll(query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, classifyError(err)
	}
	return rows, nil
}

// LastInsertID returns the parent store's last insert id.
func (t *Tx) LastInsertID() int64 {
	return t.store.LastInsertID()
}

// Transaction joins the enclosing transaction: fn runs on t and its error
// is returned to the outer scope, which decides commit or rollback.
func (t *Tx) Transaction(fn func(Executor) error) error {
	return fn(t)
}

// Logger returns the parent store's logger.
func (t *Tx) Logger() *slog.Logger {
	return t.store.logger
}

// compactQuery collapses whitespace for log output.
func compactQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
