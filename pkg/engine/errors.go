// Package engine contains the trigger evaluator, step executor, execution
// driver, and continuation scheduler that run marketing workflows.
package engine

import "errors"

// Eligibility failures returned by TriggerWorkflow. Callers treat these as
// expected "not eligible" outcomes, not incidents.
var (
	ErrWorkflowInactive     = errors.New("workflow is not active")
	ErrCustomerNotInSegment = errors.New("customer is not in workflow segment")
)

// IsNotEligible reports whether the error is an expected eligibility outcome
// rather than a system failure.
func IsNotEligible(err error) bool {
	return errors.Is(err, ErrWorkflowInactive) || errors.Is(err, ErrCustomerNotInSegment)
}
