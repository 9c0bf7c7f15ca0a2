package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/livescore/internal/domain/model"
)

type rowKey struct {
	contest  string
	callsign string
}

// MemoryStore is an in-process Store. Transactions are serialized and
// applied to a staged copy, so a failed callback leaves nothing behind.
type MemoryStore struct {
	mu      sync.Mutex
	rows    map[rowKey]model.Row
	users   map[string]model.User
	nextRow int64
	nextUsr int64
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:  make(map[rowKey]model.Row),
		users: make(map[string]model.User),
	}
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// InTx runs fn against a staged copy of the rows and commits on success.
func (m *MemoryStore) InTx(ctx context.Context, fn func(ScoreStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	tx := &memTx{rows: make(map[rowKey]model.Row, len(m.rows)), nextID: m.nextRow}
	for k, v := range m.rows {
		tx.rows[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	m.rows = tx.rows
	m.nextRow = tx.nextID
	return nil
}

// ListRows returns every row ordered by score desc, contest, callsign.
func (m *MemoryStore) ListRows(_ context.Context) ([]model.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Row, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Contest != b.Contest {
			return a.Contest < b.Contest
		}
		return a.Callsign < b.Callsign
	})
	return out, nil
}

// CountRows returns the number of rows.
func (m *MemoryStore) CountRows(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

// FindUserByHandle returns the user registered under handle.
func (m *MemoryStore) FindUserByHandle(_ context.Context, handle string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[handle]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// CreateUser registers u, assigning its ID.
func (m *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Handle]; ok {
		return fmt.Errorf("user %q: %w", u.Handle, ErrDuplicate)
	}
	m.nextUsr++
	u.ID = m.nextUsr
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.Handle] = *u
	return nil
}

// CountUsers returns the number of registered users.
func (m *MemoryStore) CountUsers(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

type memTx struct {
	rows   map[rowKey]model.Row
	nextID int64
}

func (t *memTx) FindRow(_ context.Context, contest, callsign string) (model.Row, error) {
	r, ok := t.rows[rowKey{contest, callsign}]
	if !ok {
		return model.Row{}, ErrNotFound
	}
	return r, nil
}

func (t *memTx) InsertRow(_ context.Context, row *model.Row) error {
	k := rowKey{row.Contest, row.Callsign}
	if _, ok := t.rows[k]; ok {
		return fmt.Errorf("row %s/%s: %w", row.Contest, row.Callsign, ErrDuplicate)
	}
	t.nextID++
	row.ID = t.nextID
	t.rows[k] = *row
	return nil
}

func (t *memTx) UpdateRow(_ context.Context, row model.Row) error {
	for k, cur := range t.rows {
		if cur.ID != row.ID {
			continue
		}
		// Identity columns are fixed at insert time.
		row.OwnerID, row.Contest, row.Callsign = cur.OwnerID, cur.Contest, cur.Callsign
		t.rows[k] = row
		return nil
	}
	return fmt.Errorf("update row %d: %w", row.ID, ErrNotFound)
}
