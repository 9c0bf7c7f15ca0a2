// Package types contains wire types shared by the HTTP layer and the service.
package types

import "time"

// ScoreboardEntry is one row of the public scoreboard.
type ScoreboardEntry struct {
	Contest     string    `json:"contest"`
	Callsign    string    `json:"callsign"`
	Operators   string    `json:"ops"`
	QSOs        int       `json:"qsos"`
	Points      int       `json:"points"`
	Mults       int       `json:"mults"`
	Score       int       `json:"score"`
	LastUpdated time.Time `json:"last_updated"`
	UpdatedAgo  string    `json:"updated_ago"`
}

// Registration is the acknowledgement returned after a submitter registers.
type Registration struct {
	Handle string `json:"handle"`
	Status string `json:"status"`
}
