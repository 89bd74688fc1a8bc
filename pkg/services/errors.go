// Package services provides the approval engine and the service layer operations built on it.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/items"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/dukex/approvals/pkg/users"
)

var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrInvalidItemType     = errors.New("invalid item type")
	ErrItemIDRequired      = errors.New("item id is required for update and delete")
	ErrItemIDNotAllowed    = errors.New("item id must be empty for create")
	ErrApprovalNotRequired = errors.New("no approval rule governs this change")

	// Not Found Errors (404 Not Found).
	ErrRequestNotFound   = persistence.ErrRequestNotFound
	ErrUserNotFound      = persistence.ErrUserNotFound
	ErrItemNotFound      = persistence.ErrItemNotFound
	ErrRequesterNotFound = errors.New("requester not found")
	ErrApproverNotFound  = errors.New("approver not found")

	// Business Logic Conflicts (409 Conflict).
	ErrActiveRequestExists = persistence.ErrActiveRequestExists
	ErrAlreadyDecided      = persistence.ErrDecisionExists
	ErrUsernameTaken       = persistence.ErrUsernameTaken
	ErrRequestNotActive    = errors.New("request is no longer pending")
	ErrNotRequester        = errors.New("only the requester can withdraw a request")
	ErrNotEligible         = errors.New("approver role is not required by the governing rule")

	// Configuration inconsistencies (500 Internal Server Error).
	ErrRuleMissing = errors.New("approval rule no longer exists for this request")

	// Approved but the change could not be applied (422 Unprocessable Entity).
	ErrExecutionFailed = errors.New("failed to execute approved change")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newError(op, code string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: err.Error(), Err: err}
}

// ExecutionError reports an approved request whose change failed. Request
// is the request after it was rolled back to REJECTED.
type ExecutionError struct {
	Request *models.ApprovalRequest
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrExecutionFailed, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionFailed || errors.Is(e.Err, target)
}

// IsValidation checks if an error is a validation error that should return HTTP 400.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrInvalidItemType) ||
		errors.Is(err, ErrItemIDRequired) ||
		errors.Is(err, ErrItemIDNotAllowed) ||
		errors.Is(err, ErrApprovalNotRequired) ||
		errors.Is(err, items.ErrInvalidData) ||
		errors.Is(err, users.ErrInvalidUser) ||
		errors.Is(err, dispatch.ErrMissingItemID)
}

func IsNotFound(err error) bool {
	return persistence.IsNotFound(err) ||
		errors.Is(err, ErrRequesterNotFound) ||
		errors.Is(err, ErrApproverNotFound)
}

// IsConflict checks if an error is a business logic conflict that should return HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrActiveRequestExists) ||
		errors.Is(err, ErrAlreadyDecided) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrRequestNotActive) ||
		errors.Is(err, ErrNotRequester) ||
		errors.Is(err, ErrNotEligible)
}

// IsConfiguration reports a deployment defect: a rule vanished mid-flight or
// the dispatcher cannot route a change.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrRuleMissing) || dispatch.IsConfigurationError(err)
}

func IsExecutionFailed(err error) bool {
	return errors.Is(err, ErrExecutionFailed)
}
