package api

import "github.com/okian/livescore/pkg/logger"

const (
	defaultAckMessage   = "Thanks and 73!"
	defaultMaxBodyBytes = 1 << 20
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAckMessage sets the plain-text body returned for accepted reports.
func WithAckMessage(msg string) Option {
	return func(s *Server) {
		if msg != "" {
			s.ackMessage = msg
		}
	}
}

// WithMaxBodyBytes caps request bodies on write endpoints.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
