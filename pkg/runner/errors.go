package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStepLocked is returned when another runner holds the advisory lock
// for the resolved step.
var ErrStepLocked = errors.New("step execution already in progress")

// ErrIllegalTransition is returned when a task status change is not
// allowed by the lifecycle state machine.
var ErrIllegalTransition = errors.New("illegal task status transition")

// WorkflowBlockedError reports that the next step exists but its
// dependencies are not yet done.
type WorkflowBlockedError struct {
	StepID    string
	BlockedBy []string
}

func (e *WorkflowBlockedError) Error() string {
	return fmt.Sprintf("step %s is blocked by unmet dependencies: %s",
		e.StepID, strings.Join(e.BlockedBy, ", "))
}

// IsWorkflowBlocked checks if an error is a WorkflowBlockedError.
func IsWorkflowBlocked(err error) bool {
	var blocked *WorkflowBlockedError

	return errors.As(err, &blocked)
}
