package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/approvals/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		requestErr := persistence.NewRequestError("RequestByID", "req-123", persistence.ErrRequestNotFound)
		itemErr := persistence.NewItemError("TodoByID", "todo", "todo-1", persistence.ErrItemNotFound)

		assert.True(t, persistence.IsRequestNotFound(requestErr))
		assert.True(t, persistence.IsItemNotFound(itemErr))
		assert.True(t, persistence.IsNotFound(requestErr))
		assert.True(t, persistence.IsNotFound(itemErr))
		assert.False(t, persistence.IsActiveRequestExists(requestErr))

		assert.True(t, errors.Is(requestErr, persistence.ErrRequestNotFound))
		assert.True(t, errors.Is(itemErr, persistence.ErrItemNotFound))
	})

	t.Run("request error contains context", func(t *testing.T) {
		err := persistence.NewRequestError("SaveRequest", "req-123", persistence.ErrRequestNotFound)

		assert.Contains(t, err.Error(), "SaveRequest")
		assert.Contains(t, err.Error(), "req-123")
		assert.Contains(t, err.Error(), "approval request not found")
	})

	t.Run("create error without id", func(t *testing.T) {
		err := persistence.NewRequestError("CreateRequest", "", persistence.ErrActiveRequestExists)

		assert.Equal(t, "CreateRequest operation failed: an active approval request already exists for this item", err.Error())
		assert.True(t, persistence.IsActiveRequestExists(err))
	})

	t.Run("item error contains context", func(t *testing.T) {
		err := persistence.NewItemError("UserByID", "user", "u-9", persistence.ErrUserNotFound)

		assert.Equal(t, "UserByID operation failed for user u-9: user not found", err.Error())
		assert.True(t, persistence.IsUserNotFound(err))
	})
}

func TestNewID(t *testing.T) {
	t.Parallel()

	first, err := persistence.NewID()
	assert.NoError(t, err)

	second, err := persistence.NewID()
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, first, 36)
}
