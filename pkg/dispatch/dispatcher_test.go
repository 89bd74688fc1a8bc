package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/approvals/pkg/mocks"
	"github.com/dukex/approvals/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func approved(op models.Operation, itemID string, data map[string]any) *models.ApprovalRequest {
	return &models.ApprovalRequest{
		ID:        "req-1",
		ItemType:  models.ItemTypeTodo,
		ItemID:    itemID,
		Operation: op,
		Data:      data,
		Status:    models.RequestStatusApproved,
	}
}

func TestDispatcher_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("create ignores item id", func(t *testing.T) {
		store := &mocks.MockDomainStore{}
		data := map[string]any{"title": "x"}
		store.On("Apply", ctx, models.OperationCreate, "", data).Return("created", nil).Once()

		result, err := New(map[models.ItemType]DomainStore{models.ItemTypeTodo: store}).
			Apply(ctx, approved(models.OperationCreate, "", data))
		require.NoError(t, err)
		assert.Equal(t, "created", result)
		store.AssertExpectations(t)
	})

	t.Run("update merges onto item", func(t *testing.T) {
		store := &mocks.MockDomainStore{}
		data := map[string]any{"completed": true}
		store.On("Apply", ctx, models.OperationUpdate, "todo-1", data).Return("updated", nil).Once()

		_, err := New(map[models.ItemType]DomainStore{models.ItemTypeTodo: store}).
			Apply(ctx, approved(models.OperationUpdate, "todo-1", data))
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("delete ignores payload", func(t *testing.T) {
		store := &mocks.MockDomainStore{}
		store.On("Apply", ctx, models.OperationDelete, "todo-1", map[string]any(nil)).Return(nil, nil).Once()

		_, err := New(map[models.ItemType]DomainStore{models.ItemTypeTodo: store}).
			Apply(ctx, approved(models.OperationDelete, "todo-1", map[string]any{"ignored": 1}))
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		store := &mocks.MockDomainStore{}
		store.On("Apply", ctx, models.OperationUpdate, "todo-1", mock.Anything).Return(nil, errors.New("gone")).Once()

		_, err := New(map[models.ItemType]DomainStore{models.ItemTypeTodo: store}).
			Apply(ctx, approved(models.OperationUpdate, "todo-1", nil))
		require.EqualError(t, err, "gone")
		assert.False(t, IsConfigurationError(err))
	})
}

func TestDispatcher_Preconditions(t *testing.T) {
	ctx := context.Background()
	store := &mocks.MockDomainStore{}
	d := New(map[models.ItemType]DomainStore{models.ItemTypeTodo: store})

	pending := approved(models.OperationCreate, "", nil)
	pending.Status = models.RequestStatusPending
	_, err := d.Apply(ctx, pending)
	require.ErrorIs(t, err, ErrNotApproved)

	invoice := approved(models.OperationCreate, "", nil)
	invoice.ItemType = models.ItemTypeInvoice
	_, err = d.Apply(ctx, invoice)
	require.ErrorIs(t, err, ErrUnknownItemType)
	assert.True(t, IsConfigurationError(err))

	_, err = d.Apply(ctx, approved(models.Operation("ARCHIVE"), "todo-1", nil))
	require.ErrorIs(t, err, ErrUnknownOperation)
	assert.True(t, IsConfigurationError(err))

	_, err = d.Apply(ctx, approved(models.OperationUpdate, "", nil))
	require.ErrorIs(t, err, ErrMissingItemID)

	store.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
