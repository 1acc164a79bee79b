package actions

import "fmt"

// ComputationError signals that the decision tree reached a state its own
// preconditions should have ruled out — e.g. the maximum-increase fee
// action was invoked with no below-bounds outbound forwards to evaluate.
// It always indicates a prior logic error, never bad input data.
type ComputationError struct {
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("actions engine computation error: %s", e.Reason)
}
