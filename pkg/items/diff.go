package items

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/dukex/approvals/pkg/models"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "ADDED"
	ChangeRemoved  ChangeKind = "REMOVED"
	ChangeModified ChangeKind = "MODIFIED"
)

// FieldChange is one field of an item as a proposed change would leave it.
type FieldChange struct {
	Field string     `json:"field"`
	Old   any        `json:"old,omitempty"`
	New   any        `json:"new,omitempty"`
	Kind  ChangeKind `json:"kind"`
}

// CurrentDataFetcher reads the current fields of an item.
type CurrentDataFetcher interface {
	CurrentData(ctx context.Context, itemID string) (map[string]any, error)
}

// Diff lists the field changes a request would make, sorted by field.
// CREATE adds every proposed field, DELETE removes every current field and
// UPDATE reports proposed fields that are new or differ from the current item.
func Diff(ctx context.Context, store CurrentDataFetcher, request *models.ApprovalRequest) ([]FieldChange, error) {
	changes := []FieldChange{}

	switch request.Operation {
	case models.OperationCreate:
		for _, field := range slices.Sorted(maps.Keys(request.Data)) {
			if request.Data[field] == nil {
				continue
			}

			changes = append(changes, FieldChange{Field: field, New: request.Data[field], Kind: ChangeAdded})
		}
	case models.OperationUpdate:
		current, err := store.CurrentData(ctx, request.ItemID)
		if err != nil {
			return nil, err
		}

		for _, field := range slices.Sorted(maps.Keys(request.Data)) {
			proposed := request.Data[field]
			if proposed == nil {
				continue
			}

			old, exists := current[field]
			switch {
			case !exists:
				changes = append(changes, FieldChange{Field: field, New: proposed, Kind: ChangeAdded})
			case fmt.Sprint(old) != fmt.Sprint(proposed):
				changes = append(changes, FieldChange{Field: field, Old: old, New: proposed, Kind: ChangeModified})
			}
		}
	case models.OperationDelete:
		current, err := store.CurrentData(ctx, request.ItemID)
		if err != nil {
			return nil, err
		}

		for _, field := range slices.Sorted(maps.Keys(current)) {
			changes = append(changes, FieldChange{Field: field, Old: current[field], Kind: ChangeRemoved})
		}
	default:
		return nil, fmt.Errorf("unsupported operation %s", request.Operation)
	}

	return changes, nil
}
