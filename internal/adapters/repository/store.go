// Package repository persists submitters and live scoreboard rows.
package repository

import (
	"context"

	"github.com/okian/livescore/internal/domain/model"
)

// ScoreStore reads and writes scoreboard rows inside a transaction.
type ScoreStore interface {
	// FindRow returns the row for (contest, callsign) or ErrNotFound.
	FindRow(ctx context.Context, contest, callsign string) (model.Row, error)
	// InsertRow stores a new row and sets row.ID. Returns ErrDuplicate when
	// a row for the same (contest, callsign) already exists.
	InsertRow(ctx context.Context, row *model.Row) error
	// UpdateRow overwrites the mutable fields of the row with row.ID.
	UpdateRow(ctx context.Context, row model.Row) error
}

// Transactor runs fn in a single transaction, committing when fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(ScoreStore) error) error
}

// Scoreboard exposes read access to all rows.
type Scoreboard interface {
	// ListRows returns every row ordered by score desc, contest, callsign.
	ListRows(ctx context.Context) ([]model.Row, error)
	CountRows(ctx context.Context) (int, error)
}

// CredentialStore holds registered submitters.
type CredentialStore interface {
	// FindUserByHandle returns the user or ErrNotFound.
	FindUserByHandle(ctx context.Context, handle string) (model.User, error)
	// CreateUser stores a new user and sets user.ID. Returns ErrDuplicate
	// when the handle is taken.
	CreateUser(ctx context.Context, user *model.User) error
	CountUsers(ctx context.Context) (int, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	Transactor
	Scoreboard
	CredentialStore
	Close() error
}
