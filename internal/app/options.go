package service

import (
	"time"

	"github.com/okian/livescore/internal/adapters/repository"
	"github.com/okian/livescore/internal/domain/reconcile"
	"github.com/okian/livescore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the backing store. Without one, Start uses an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPolicy sets how reports for foreign-owned rows are handled.
func WithPolicy(p reconcile.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithBcryptCost sets the work factor for registered passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// WithClock replaces the clock used for relative update times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
