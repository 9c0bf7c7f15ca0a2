package auth

import (
	"errors"
	"fmt"
)

// ErrAuthentication is the kind every login failure matches.
var ErrAuthentication = errors.New("authentication failed")

// Login failure reasons.
var (
	ErrNoCredentials = fmt.Errorf("%w: no credentials", ErrAuthentication)
	ErrUnknownHandle = fmt.Errorf("%w: unknown handle", ErrAuthentication)
	ErrWrongPassword = fmt.Errorf("%w: wrong password", ErrAuthentication)
)

// Registration failures.
var (
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrHandleTaken         = errors.New("user already exists")
)
