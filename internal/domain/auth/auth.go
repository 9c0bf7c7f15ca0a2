// Package auth verifies submitter credentials and registers new submitters.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/livescore/internal/adapters/repository"
	"github.com/okian/livescore/internal/domain/model"
	"golang.org/x/crypto/bcrypt"
)

// Identity is an authenticated submitter.
type Identity struct {
	UserID int64
	Handle string
}

// Authenticator checks handles and passwords against a CredentialStore.
type Authenticator struct {
	users repository.CredentialStore
	cost  int
}

// Option applies a configuration option to the Authenticator.
type Option func(*Authenticator)

// WithBcryptCost sets the work factor for new password hashes.
func WithBcryptCost(cost int) Option {
	return func(a *Authenticator) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			a.cost = cost
		}
	}
}

// New returns an Authenticator over users.
func New(users repository.CredentialStore, opts ...Option) *Authenticator {
	a := &Authenticator{users: users, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate resolves handle and password to an Identity. Handles are
// case-insensitive; an empty handle is never registered.
func (a *Authenticator) Authenticate(ctx context.Context, handle, password string) (Identity, error) {
	handle = model.NormalizeHandle(handle)
	if handle == "" {
		return Identity{}, ErrUnknownHandle
	}
	u, err := a.users.FindUserByHandle(ctx, handle)
	if errors.Is(err, repository.ErrNotFound) {
		return Identity{}, ErrUnknownHandle
	}
	if err != nil {
		return Identity{}, fmt.Errorf("authenticate %q: %w", handle, err)
	}
	if !VerifyPassword(u, password) {
		return Identity{}, ErrWrongPassword
	}
	return Identity{UserID: u.ID, Handle: u.Handle}, nil
}

// Register creates a submitter with a bcrypt-hashed password.
func (a *Authenticator) Register(ctx context.Context, handle, password string) (model.User, error) {
	handle = model.NormalizeHandle(handle)
	if handle == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: callsign and password are required", ErrInvalidRegistration)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.User{}, fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Handle: handle, PasswordHash: hash}
	if err := a.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, fmt.Errorf("%s: %w", handle, ErrHandleTaken)
		}
		return model.User{}, err
	}
	return u, nil
}

// VerifyPassword reports whether plaintext matches the user's hash.
func VerifyPassword(u model.User, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(plaintext)) == nil
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
