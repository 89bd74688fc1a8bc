// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRequestNotFound indicates an approval request was not found by the given identifier.
	ErrRequestNotFound = errors.New("approval request not found")

	// ErrActiveRequestExists indicates another active request already targets the same item.
	ErrActiveRequestExists = errors.New("an active approval request already exists for this item")

	// ErrRequestStatusChanged indicates a conditional status update found the
	// request in another status than expected.
	ErrRequestStatusChanged = errors.New("approval request status changed concurrently")

	// ErrDecisionExists indicates the approver already decided on the request.
	ErrDecisionExists = errors.New("approver has already responded to this request")

	// ErrUserNotFound indicates a user was not found by the given identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates a user with the same username already exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrItemNotFound indicates a todo or invoice was not found.
	ErrItemNotFound = errors.New("item not found")
)

// RequestError wraps approval request errors with additional context.
type RequestError struct {
	Op        string // Operation being performed (e.g., "RequestByID", "CreateRequest")
	RequestID string
	Err       error
}

func (e *RequestError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s operation failed for request %s: %v", e.Op, e.RequestID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for request errors.
func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewRequestError(op, requestID string, err error) *RequestError {
	return &RequestError{Op: op, RequestID: requestID, Err: err}
}

// ItemError wraps user, todo and invoice errors with the kind and ID of the record.
type ItemError struct {
	Op   string
	Kind string // "user", "todo" or "invoice"
	ID   string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func (e *ItemError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewItemError(op, kind, id string, err error) *ItemError {
	return &ItemError{Op: op, Kind: kind, ID: id, Err: err}
}

func IsRequestNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound)
}

func IsActiveRequestExists(err error) bool {
	return errors.Is(err, ErrActiveRequestExists)
}

func IsRequestStatusChanged(err error) bool {
	return errors.Is(err, ErrRequestStatusChanged)
}

func IsDecisionExists(err error) bool {
	return errors.Is(err, ErrDecisionExists)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsItemNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

// IsNotFound reports any of the not-found errors.
func IsNotFound(err error) bool {
	return IsRequestNotFound(err) || IsUserNotFound(err) || IsItemNotFound(err)
}
