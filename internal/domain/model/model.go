// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// TimestampLayout is the fixed report time format sent by logging clients.
const TimestampLayout = "2006-01-02 15:04:05"

// operatorSeparator joins operators for storage and display.
const operatorSeparator = ", "

// Report is one decoded score snapshot. It lives for a single request.
type Report struct {
	Contest   string
	Callsign  string
	Operators []string
	QSOs      int
	Points    int
	Mults     int
	Score     int
	Timestamp time.Time // client-local report time, not receipt time
}

// OperatorList renders the operators the way they are stored.
func (r Report) OperatorList() string {
	return JoinOperators(r.Operators)
}

// Row is the persisted live standing for a (contest, callsign) pair.
type Row struct {
	ID          int64
	OwnerID     int64
	Contest     string
	Callsign    string
	Operators   string
	QSOs        int
	Points      int
	Mults       int
	Score       int
	LastUpdated time.Time
}

// NewRow builds a row owned by ownerID from a report.
func NewRow(ownerID int64, r Report) Row {
	row := Row{OwnerID: ownerID, Contest: r.Contest, Callsign: r.Callsign}
	row.Apply(r)
	return row
}

// Apply overwrites the mutable fields of the row with the report's values.
// Owner, contest and callsign are never touched.
func (row *Row) Apply(r Report) {
	row.Operators = r.OperatorList()
	row.QSOs = r.QSOs
	row.Points = r.Points
	row.Mults = r.Mults
	row.Score = r.Score
	row.LastUpdated = r.Timestamp
}

// User is a registered submitter.
type User struct {
	ID           int64
	Handle       string
	PasswordHash []byte
	CreatedAt    time.Time
}

// SplitOperators splits a whitespace-separated operator string, collapsing
// runs of whitespace. Empty input yields an empty (non-nil) slice.
func SplitOperators(raw string) []string {
	ops := strings.Fields(raw)
	if ops == nil {
		return []string{}
	}
	return ops
}

// JoinOperators renders operators as "A, B, C".
func JoinOperators(ops []string) string {
	return strings.Join(ops, operatorSeparator)
}

// NormalizeHandle upper-cases and trims a callsign used as a login handle.
func NormalizeHandle(handle string) string {
	return strings.ToUpper(strings.TrimSpace(handle))
}
