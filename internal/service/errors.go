package service

import "fmt"

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// BusinessLogicError represents a business logic error
type BusinessLogicError struct {
	Message string
}

func (e *BusinessLogicError) Error() string {
	return fmt.Sprintf("business logic error: %s", e.Message)
}

// NotApplicableError reports a state transition whose precondition did not
// hold. The stored state is untouched; callers surface it as a conflict, not
// a crash.
type NotApplicableError struct {
	Resource string
	ID       int
	Action   string
}

func (e *NotApplicableError) Error() string {
	return fmt.Sprintf("%s %d: %s not applicable in current status", e.Resource, e.ID, e.Action)
}
