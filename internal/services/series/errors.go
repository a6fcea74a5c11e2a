package series

import "fmt"

// InsufficientDataError is recoverable: the orchestrating cycle skips the
// affected asset instead of aborting.
type InsufficientDataError struct {
	Op   string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d points, got %d", e.Op, e.Need, e.Got)
}

// InvalidInputError marks a malformed series: non-monotonic timestamps,
// duplicate timestamps or negative prices.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid series: %s", e.Reason)
}
