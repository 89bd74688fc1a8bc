package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/models"
)

// Changes is the entry point for item mutations: it executes ungoverned
// changes at once and routes governed ones into an approval request.
type Changes struct {
	approval   *Approval
	dispatcher *dispatch.Dispatcher
	users      UserDirectory
	logger     *slog.Logger
}

func NewChanges(approval *Approval, dispatcher *dispatch.Dispatcher, users UserDirectory, logger *slog.Logger) *Changes {
	return &Changes{
		approval:   approval,
		dispatcher: dispatcher,
		users:      users,
		logger:     logger.With("module", "changes"),
	}
}

type Change struct {
	ItemType  models.ItemType
	ItemID    string
	Operation models.Operation
	Data      map[string]any
	UserID    string
}

type ChangeResult struct {
	ApprovalRequired bool                    `json:"approval_required"`
	Request          *models.ApprovalRequest `json:"approval_request,omitempty"`
	Requirement      string                  `json:"requirement,omitempty"`
	Result           any                     `json:"result,omitempty"`
}

// Submit evaluates a change against the rules on the state it would leave
// the item in: the proposed data for CREATE, the current item overlaid with
// the proposed data for UPDATE and the current item for DELETE. A governed
// change stores that state as the request data. An item with an active
// request accepts no other change until that request ends.
func (c *Changes) Submit(ctx context.Context, change Change) (*ChangeResult, error) {
	if !change.Operation.Valid() {
		return nil, newError("Submit", "validation_error", fmt.Errorf("%w: %q", ErrInvalidOperation, change.Operation))
	}

	if change.Operation != models.OperationCreate && change.ItemID == "" {
		return nil, newError("Submit", "validation_error", ErrItemIDRequired)
	}

	store, ok := c.dispatcher.Store(change.ItemType)
	if !ok {
		return nil, newError("Submit", "validation_error", fmt.Errorf("%w: %q", ErrInvalidItemType, change.ItemType))
	}

	_, err := c.users.FindByID(ctx, change.UserID)
	if err != nil {
		return nil, lookupError("Submit", change.UserID, ErrRequesterNotFound, err)
	}

	if change.Operation == models.OperationCreate {
		evaluated := maps.Clone(change.Data)
		if !c.approval.RequiresApproval(change.ItemType, change.Operation, evaluated) {
			return c.execute(ctx, change)
		}

		return c.requestApproval(ctx, change, "", evaluated)
	}

	var (
		result    *ChangeResult
		evaluated map[string]any
	)

	// The item lock keeps a request from being opened between the check and
	// the mutation.
	err = c.approval.WithItemLock(ctx, change.ItemType, change.ItemID, func(ctx context.Context) error {
		var err error

		evaluated, err = evaluatedData(ctx, store, change)
		if err != nil {
			return err
		}

		if c.approval.RequiresApproval(change.ItemType, change.Operation, evaluated) {
			return nil
		}

		pending, err := c.approval.HasActiveRequest(ctx, change.ItemType, change.ItemID)
		if err != nil {
			return err
		}

		if pending {
			return newError("Submit", "active_request_exists", ErrActiveRequestExists)
		}

		result, err = c.execute(ctx, change)

		return err
	})
	if err != nil {
		return nil, err
	}

	if result != nil {
		return result, nil
	}

	return c.requestApproval(ctx, change, change.ItemID, evaluated)
}

func (c *Changes) execute(ctx context.Context, change Change) (*ChangeResult, error) {
	result, err := c.dispatcher.Execute(ctx, change.ItemType, change.Operation, change.ItemID, change.Data)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Change applied without approval",
		"item_type", change.ItemType,
		"operation", change.Operation,
		"item_id", change.ItemID,
		"user_id", change.UserID,
	)

	return &ChangeResult{Result: result}, nil
}

func (c *Changes) requestApproval(ctx context.Context, change Change, itemID string, evaluated map[string]any) (*ChangeResult, error) {
	request, err := c.approval.Create(ctx, CreateRequest{
		ItemType:    change.ItemType,
		ItemID:      itemID,
		Operation:   change.Operation,
		Data:        evaluated,
		RequesterID: change.UserID,
	})
	if err != nil {
		return nil, err
	}

	return &ChangeResult{
		ApprovalRequired: true,
		Request:          request,
		Requirement:      c.approval.RequirementFor(request),
	}, nil
}

func evaluatedData(ctx context.Context, store dispatch.DomainStore, change Change) (map[string]any, error) {
	current, err := store.CurrentData(ctx, change.ItemID)
	if err != nil {
		return nil, err
	}

	if change.Operation == models.OperationDelete {
		return current, nil
	}

	for field, value := range change.Data {
		if value != nil {
			current[field] = value
		}
	}

	return current, nil
}
