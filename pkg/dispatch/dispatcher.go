// Package dispatch executes approved changes against the store of the
// targeted item type.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/approvals/pkg/models"
)

var (
	ErrNotApproved      = errors.New("request is not approved")
	ErrUnknownItemType  = errors.New("no store registered for item type")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingItemID    = errors.New("operation requires an item id")
)

// DomainStore applies changes to one item type.
type DomainStore interface {
	// Apply creates an item from data, merges data onto the item itemID, or
	// deletes itemID ignoring data.
	Apply(ctx context.Context, operation models.Operation, itemID string, data map[string]any) (any, error)

	// CurrentData returns the current field values of itemID.
	CurrentData(ctx context.Context, itemID string) (map[string]any, error)
}

type Dispatcher struct {
	stores map[models.ItemType]DomainStore
}

func New(stores map[models.ItemType]DomainStore) *Dispatcher {
	registered := make(map[models.ItemType]DomainStore, len(stores))
	for itemType, store := range stores {
		registered[itemType] = store
	}

	return &Dispatcher{stores: registered}
}

// IsConfigurationError reports whether err means the dispatcher cannot route
// the change at all, as opposed to the store failing to apply it.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownItemType) || errors.Is(err, ErrUnknownOperation)
}

func (d *Dispatcher) Store(itemType models.ItemType) (DomainStore, bool) {
	store, ok := d.stores[itemType]

	return store, ok
}

// Apply executes an approved request.
func (d *Dispatcher) Apply(ctx context.Context, request *models.ApprovalRequest) (any, error) {
	if request.Status != models.RequestStatusApproved {
		return nil, fmt.Errorf("%w: request %s is %s", ErrNotApproved, request.ID, request.Status)
	}

	return d.Execute(ctx, request.ItemType, request.Operation, request.ItemID, request.Data)
}

// Execute applies a change directly. It is the path for changes no rule governs.
func (d *Dispatcher) Execute(ctx context.Context, itemType models.ItemType, operation models.Operation, itemID string, data map[string]any) (any, error) {
	store, ok := d.stores[itemType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItemType, itemType)
	}

	switch operation {
	case models.OperationCreate:
		return store.Apply(ctx, operation, "", data)
	case models.OperationUpdate:
		if itemID == "" {
			return nil, ErrMissingItemID
		}

		return store.Apply(ctx, operation, itemID, data)
	case models.OperationDelete:
		if itemID == "" {
			return nil, ErrMissingItemID
		}

		return store.Apply(ctx, operation, itemID, nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}
}
