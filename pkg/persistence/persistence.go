// Package persistence provides the storage abstraction for approval requests,
// decisions, users and the items they govern.
package persistence

import (
	"context"
	"fmt"

	"github.com/dukex/approvals/pkg/models"
	"github.com/google/uuid"
)

// RequestRepository stores approval requests. Requests are never deleted.
type RequestRepository interface {
	// CreateRequest inserts a new request. It fails with ErrActiveRequestExists
	// when another active request targets the same item, atomically with the insert.
	CreateRequest(ctx context.Context, request *models.ApprovalRequest) error

	// SaveRequest updates the status fields of an existing request.
	SaveRequest(ctx context.Context, request *models.ApprovalRequest) error

	// TransitionRequest updates the status fields only while the stored
	// request is still in status from. Otherwise it fails with
	// ErrRequestStatusChanged and leaves the request untouched.
	TransitionRequest(ctx context.Context, request *models.ApprovalRequest, from models.RequestStatus) error

	RequestByID(ctx context.Context, id string) (*models.ApprovalRequest, error)

	// RequestsByRequester lists requests of a requester, newest first.
	RequestsByRequester(ctx context.Context, requesterID string) ([]*models.ApprovalRequest, error)

	// ActiveRequests lists requests in an active status, oldest first.
	ActiveRequests(ctx context.Context) ([]*models.ApprovalRequest, error)
}

// DecisionRepository stores decisions. It is append-only and rejects a second
// decision of one approver on one request with ErrDecisionExists.
type DecisionRepository interface {
	SaveDecision(ctx context.Context, decision *models.ApprovalDecision) error

	// DecisionsByRequest lists decisions in the order they were recorded.
	DecisionsByRequest(ctx context.Context, requestID string) ([]*models.ApprovalDecision, error)
}

type UserRepository interface {
	SaveUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	Users(ctx context.Context) ([]*models.User, error)
	UsersByRoles(ctx context.Context, roles []models.Role) ([]*models.User, error)
}

type TodoRepository interface {
	SaveTodo(ctx context.Context, todo *models.Todo) error
	TodoByID(ctx context.Context, id string) (*models.Todo, error)
	Todos(ctx context.Context) ([]*models.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

type InvoiceRepository interface {
	SaveInvoice(ctx context.Context, invoice *models.Invoice) error
	InvoiceByID(ctx context.Context, id string) (*models.Invoice, error)
	Invoices(ctx context.Context) ([]*models.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
}

type Persistence interface {
	RequestRepository
	DecisionRepository
	UserRepository
	TodoRepository
	InvoiceRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewID returns a time ordered identifier for a new record.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}

	return id.String(), nil
}
