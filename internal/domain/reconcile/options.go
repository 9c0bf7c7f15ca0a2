package reconcile

import "github.com/okian/livescore/pkg/logger"

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithPolicy selects how foreign-owned rows are handled.
func WithPolicy(p Policy) Option {
	return func(r *Reconciler) {
		r.policy = p
	}
}

// WithLogger sets the logger used for conflict diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}
