// Package reconcile applies decoded reports to the live scoreboard.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/livescore/internal/adapters/repository"
	"github.com/okian/livescore/internal/domain/model"
	"github.com/okian/livescore/pkg/logger"
)

// Outcome is what a reconciliation did to the scoreboard.
type Outcome int

const (
	Inserted Outcome = iota + 1
	Updated
	// Ignored means the row belongs to someone else and PolicyIgnore
	// accepted the report without applying it.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Policy decides what happens when a report targets a foreign-owned row.
type Policy int

const (
	// PolicyReject fails with ErrOwnershipConflict.
	PolicyReject Policy = iota
	// PolicyIgnore commits without change and reports Ignored.
	PolicyIgnore
)

// ParsePolicy maps a config value ("reject", "ignore") to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "reject":
		return PolicyReject, nil
	case "ignore":
		return PolicyIgnore, nil
	default:
		return PolicyReject, fmt.Errorf("unknown ownership policy %q", s)
	}
}

// insertAttempts bounds the insert-then-update retry after a lost race.
const insertAttempts = 2

// Reconciler upserts reports with an ownership check.
type Reconciler struct {
	tx     repository.Transactor
	policy Policy
	logger logger.Logger
}

// New returns a Reconciler writing through tx.
func New(tx repository.Transactor, opts ...Option) *Reconciler {
	r := &Reconciler{tx: tx, policy: PolicyReject}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	return r
}

// Reconcile stores report for ownerID. The first report for a (contest,
// callsign) pair creates the row and fixes its owner; later reports from
// the owner overwrite the counts in place. Reports from anyone else never
// change the row.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID int64, report model.Report) (Outcome, error) {
	var (
		outcome Outcome
		err     error
	)
	for attempt := 1; attempt <= insertAttempts; attempt++ {
		err = r.tx.InTx(ctx, func(s repository.ScoreStore) error {
			var applyErr error
			outcome, applyErr = r.apply(ctx, s, ownerID, report)
			return applyErr
		})
		// A concurrent insert won the (contest, callsign) key between our
		// lookup and insert; the next attempt finds its row.
		if errors.Is(err, repository.ErrDuplicate) && attempt < insertAttempts {
			r.logger.Debug(ctx, "insert lost race, retrying as update",
				logger.String("contest", report.Contest),
				logger.String("callsign", report.Callsign),
			)
			continue
		}
		break
	}
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

func (r *Reconciler) apply(ctx context.Context, s repository.ScoreStore, ownerID int64, report model.Report) (Outcome, error) {
	existing, err := s.FindRow(ctx, report.Contest, report.Callsign)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		row := model.NewRow(ownerID, report)
		if err := s.InsertRow(ctx, &row); err != nil {
			return 0, err
		}
		return Inserted, nil
	case err != nil:
		return 0, err
	}

	if existing.OwnerID != ownerID {
		r.logger.Warn(ctx, "report for row owned by another submitter",
			logger.String("contest", report.Contest),
			logger.String("callsign", report.Callsign),
			logger.Int64("owner", existing.OwnerID),
			logger.Int64("submitter", ownerID),
		)
		if r.policy == PolicyIgnore {
			return Ignored, nil
		}
		return 0, fmt.Errorf("%s/%s: %w", report.Contest, report.Callsign, ErrOwnershipConflict)
	}

	existing.Apply(report)
	if err := s.UpdateRow(ctx, existing); err != nil {
		return 0, err
	}
	return Updated, nil
}
