// Package ledger implements the budget ledger core: atomic adjustment
// primitives, the integrity checker, the recurring obligation scheduler
// and the savings auto-contribution engine.
package ledger

import (
	"fmt"
)

// CompensationError reports that an adjustment was applied, a later
// step failed and the compensating inverse adjustment failed as well.
//
// This is the one error that leaves the ledger inconsistent: the
// invariant can only be restored by running the integrity checker with
// fix enabled. It is therefore kept distinct from an ordinary rollback,
// where the compensation succeeded and the ledger is as if the
// operation never happened.
type CompensationError struct {
	Op           string // the operation that was being compensated
	Cause        error  // the failure that triggered the compensation
	Compensation error  // the failure of the compensation itself
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation for %s failed: %v (original error: %v)", e.Op, e.Compensation, e.Cause)
}

func (e *CompensationError) Unwrap() error {
	return e.Compensation
}
