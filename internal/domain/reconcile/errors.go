package reconcile

import "errors"

// ErrOwnershipConflict is returned when a report targets a row owned by a
// different submitter and the policy is PolicyReject.
var ErrOwnershipConflict = errors.New("ownership conflict")
