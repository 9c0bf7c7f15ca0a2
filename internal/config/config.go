// Package config defines service configuration and how it is loaded.
package config

import "context"

// Ownership policies for reports that target a row owned by someone else.
const (
	OwnershipReject = "reject"
	OwnershipIgnore = "ignore"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// DBPath is the SQLite database file holding users and scoreboard rows.
	DBPath string `koanf:"db_path"`
	// MaxBodyBytes caps the size of a submitted report.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	// AckMessage is returned to logging clients after a stored report.
	AckMessage string `koanf:"ack_message"`
	// OwnershipPolicy is "reject" (409 to the submitter) or "ignore"
	// (accept and drop the report).
	OwnershipPolicy string `koanf:"ownership_policy"`
	// BcryptCost is the work factor used when registering submitters.
	BcryptCost int `koanf:"bcrypt_cost"`
}

// New creates a Config populated with defaults. Context is accepted to keep
// the loader signature uniform and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		DBPath:          "livescore.db",
		MaxBodyBytes:    1 << 20,
		AckMessage:      "Thanks and 73!",
		OwnershipPolicy: OwnershipReject,
		BcryptCost:      10,
	}
}
