package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/logger"
	"github.com/okian/livescore/pkg/metrics"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	defaultBusyTimeout = 5 * time.Second
	createdAtLayout    = time.RFC3339Nano
)

// SQLiteStore is a Store backed by a single-writer SQLite database.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
	wal         bool
	closed      atomic.Bool
	logger      logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout, wal: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: SQLite has a single writer and :memory: databases are
	// per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout=%d;", s.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys=ON;",
	}
	if s.wal && path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL;")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s.db = db
	s.logger.Info(ctx, "sqlite store opened", logger.String("path", path), logger.Bool("wal", s.wal))
	return s, nil
}

// Close releases the database handle. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// InTx runs fn inside a database transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(ScoreStore) error) (err error) {
	if s.closed.Load() {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn(ctx, "rollback failed", logger.Error(rbErr))
			}
		}
	}()

	if err = fn(&sqlScores{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListRows returns every row ordered by score desc, contest, callsign.
func (s *SQLiteStore) ListRows(ctx context.Context) ([]model.Row, error) {
	defer observe("list_rows", time.Now())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, contest, callsign, ops, qsos, points, mults, score, last_updated
		FROM live_scores
		ORDER BY score DESC, contest, callsign`)
	if err != nil {
		metrics.RecordStoreError("list_rows")
		return nil, fmt.Errorf("list rows: %w", err)
	}
	defer rows.Close()

	out := []model.Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	return out, nil
}

// CountRows returns the number of scoreboard rows.
func (s *SQLiteStore) CountRows(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM live_scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// FindUserByHandle looks a submitter up by exact handle.
func (s *SQLiteStore) FindUserByHandle(ctx context.Context, handle string) (model.User, error) {
	defer observe("find_user", time.Now())
	var (
		u       model.User
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, handle, password_hash, created_at FROM users WHERE handle = ?`, handle,
	).Scan(&u.ID, &u.Handle, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError("find_user")
		return model.User{}, fmt.Errorf("find user %q: %w", handle, err)
	}
	if u.CreatedAt, err = time.Parse(createdAtLayout, created); err != nil {
		return model.User{}, fmt.Errorf("user %q created_at: %w", handle, err)
	}
	return u, nil
}

// CreateUser inserts a submitter.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	defer observe("create_user", time.Now())
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (handle, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Handle, u.PasswordHash, u.CreatedAt.Format(createdAtLayout))
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Handle, ErrDuplicate)
	}
	if err != nil {
		metrics.RecordStoreError("create_user")
		return fmt.Errorf("create user %q: %w", u.Handle, err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("create user %q: %w", u.Handle, err)
	}
	return nil
}

// CountUsers returns the number of registered submitters.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqlScores is the ScoreStore handed to InTx callbacks.
type sqlScores struct {
	q queryer
}

func (t *sqlScores) FindRow(ctx context.Context, contest, callsign string) (model.Row, error) {
	defer observe("find_row", time.Now())
	row, err := scanRow(t.q.QueryRowContext(ctx, `
		SELECT id, user_id, contest, callsign, ops, qsos, points, mults, score, last_updated
		FROM live_scores
		WHERE contest = ? AND callsign = ?`, contest, callsign))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Row{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError("find_row")
		return model.Row{}, fmt.Errorf("find row %s/%s: %w", contest, callsign, err)
	}
	return row, nil
}

func (t *sqlScores) InsertRow(ctx context.Context, row *model.Row) error {
	defer observe("insert_row", time.Now())
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO live_scores (user_id, contest, callsign, ops, qsos, points, mults, score, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.OwnerID, row.Contest, row.Callsign, row.Operators,
		row.QSOs, row.Points, row.Mults, row.Score,
		row.LastUpdated.Format(model.TimestampLayout))
	if isUniqueViolation(err) {
		return fmt.Errorf("row %s/%s: %w", row.Contest, row.Callsign, ErrDuplicate)
	}
	if err != nil {
		metrics.RecordStoreError("insert_row")
		return fmt.Errorf("insert row %s/%s: %w", row.Contest, row.Callsign, err)
	}
	if row.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert row %s/%s: %w", row.Contest, row.Callsign, err)
	}
	return nil
}

func (t *sqlScores) UpdateRow(ctx context.Context, row model.Row) error {
	defer observe("update_row", time.Now())
	res, err := t.q.ExecContext(ctx, `
		UPDATE live_scores
		SET ops = ?, qsos = ?, points = ?, mults = ?, score = ?, last_updated = ?
		WHERE id = ?`,
		row.Operators, row.QSOs, row.Points, row.Mults, row.Score,
		row.LastUpdated.Format(model.TimestampLayout), row.ID)
	if err != nil {
		metrics.RecordStoreError("update_row")
		return fmt.Errorf("update row %d: %w", row.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update row %d: %w", row.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update row %d: %w", row.ID, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (model.Row, error) {
	var (
		row     model.Row
		updated string
	)
	if err := sc.Scan(&row.ID, &row.OwnerID, &row.Contest, &row.Callsign, &row.Operators,
		&row.QSOs, &row.Points, &row.Mults, &row.Score, &updated); err != nil {
		return model.Row{}, err
	}
	ts, err := time.Parse(model.TimestampLayout, updated)
	if err != nil {
		return model.Row{}, fmt.Errorf("row %d last_updated: %w", row.ID, err)
	}
	row.LastUpdated = ts
	return row, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
