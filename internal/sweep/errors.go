package sweep

import (
	"context"
	"errors"
	"fmt"

	"syncbench/internal/correlate"
)

// ConditionError ties a failure to the condition and directory it came from.
type ConditionError struct {
	Condition Condition
	Dir       string
	Err       error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %s (%s): %v", e.Condition, e.Dir, e.Err)
}

func (e *ConditionError) Unwrap() error { return e.Err }

// fatal reports errors that abort the sweep even with continue_on_error.
func fatal(err error) bool {
	return errors.Is(err, correlate.ErrNeverPublished) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
