package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/approvals/pkg/dispatch"
	"github.com/dukex/approvals/pkg/items"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/notification"
	"github.com/dukex/approvals/pkg/persistence/memory"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/dukex/approvals/pkg/testutil"
	"github.com/dukex/approvals/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changesFixture struct {
	store    *memory.Persistence
	todos    *items.TodoStore
	changes  *Changes
	approval *Approval
	user     *models.User
	manager  *models.User
	admin    *models.User
}

func newChangesFixture(t *testing.T) *changesFixture {
	t.Helper()

	store := memory.NewPersistence()
	directory := users.NewDirectory(store)
	todos := items.NewTodoStore(store)
	dispatcher := dispatch.New(map[models.ItemType]dispatch.DomainStore{
		models.ItemTypeTodo:    todos,
		models.ItemTypeInvoice: items.NewInvoiceStore(store),
	})
	approval := NewApproval(store, rules.NewMatcher(rules.DefaultCatalog()), directory, dispatcher, notification.Nop{}, slog.Default())

	f := &changesFixture{
		store:    store,
		todos:    todos,
		approval: approval,
		changes:  NewChanges(approval, dispatcher, directory, slog.Default()),
	}

	for _, u := range []struct {
		target **models.User
		role   models.Role
	}{{&f.user, models.RoleUser}, {&f.manager, models.RoleManager}, {&f.admin, models.RoleAdmin}} {
		user := testutil.CreateTestUser(u.role)
		require.NoError(t, store.SaveUser(context.Background(), user))
		*u.target = user
	}

	return f
}

func TestChanges_SubmitWithoutApproval(t *testing.T) {
	ctx := context.Background()
	f := newChangesFixture(t)

	result, err := f.changes.Submit(ctx, Change{
		ItemType:  models.ItemTypeTodo,
		Operation: models.OperationCreate,
		Data:      map[string]any{"title": "Water plants", "level": "LOW"},
		UserID:    f.user.ID,
	})
	require.NoError(t, err)
	assert.False(t, result.ApprovalRequired)
	require.IsType(t, &models.Todo{}, result.Result)

	todos, err := f.todos.List(ctx)
	require.NoError(t, err)
	assert.Len(t, todos, 1)
}

func TestChanges_SubmitRoutesThroughApproval(t *testing.T) {
	ctx := context.Background()
	f := newChangesFixture(t)

	created, err := f.changes.Submit(ctx, Change{
		ItemType:  models.ItemTypeTodo,
		Operation: models.OperationCreate,
		Data:      map[string]any{"title": "Rotate keys", "level": "LOW"},
		UserID:    f.user.ID,
	})
	require.NoError(t, err)
	todo := created.Result.(*models.Todo)

	// Raising the level makes the update governed by the high level rule.
	result, err := f.changes.Submit(ctx, Change{
		ItemType:  models.ItemTypeTodo,
		ItemID:    todo.ID,
		Operation: models.OperationUpdate,
		Data:      map[string]any{"level": "HIGH"},
		UserID:    f.user.ID,
	})
	require.NoError(t, err)
	require.True(t, result.ApprovalRequired)
	assert.Equal(t, "Requires approval from: ADMIN, MANAGER", result.Requirement)
	assert.Equal(t, "Rotate keys", result.Request.Data["title"])

	changes, err := items.Diff(ctx, f.todos, result.Request)
	require.NoError(t, err)
	assert.Equal(t, []items.FieldChange{{Field: "level", Old: "LOW", New: "HIGH", Kind: items.ChangeModified}}, changes)

	_, err = f.approval.Decide(ctx, result.Request.ID, f.manager.ID, true, "")
	require.NoError(t, err)

	unchanged, err := f.todos.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LevelLow, unchanged.Level)

	approved, err := f.approval.Decide(ctx, result.Request.ID, f.admin.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, approved.Status)

	applied, err := f.todos.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LevelHigh, applied.Level)
	assert.Equal(t, "Rotate keys", applied.Title)
}

func TestChanges_DeleteEvaluatesCurrentItem(t *testing.T) {
	ctx := context.Background()
	f := newChangesFixture(t)

	todo := &models.Todo{Title: "Archive logs", Level: models.LevelMedium}
	require.NoError(t, f.store.SaveTodo(ctx, todo))

	result, err := f.changes.Submit(ctx, Change{
		ItemType:  models.ItemTypeTodo,
		ItemID:    todo.ID,
		Operation: models.OperationDelete,
		UserID:    f.user.ID,
	})
	require.NoError(t, err)
	require.True(t, result.ApprovalRequired)
	assert.Equal(t, "MEDIUM", result.Request.Data["level"])

	_, err = f.changes.Submit(ctx, Change{
		ItemType:  models.ItemTypeTodo,
		ItemID:    todo.ID,
		Operation: models.OperationUpdate,
		Data:      map[string]any{"completed": true},
		UserID:    f.user.ID,
	})
	require.ErrorIs(t, err, ErrActiveRequestExists)

	_, err = f.approval.Decide(ctx, result.Request.ID, f.manager.ID, true, "")
	require.NoError(t, err)

	_, err = f.todos.Get(ctx, todo.ID)
	assert.True(t, IsNotFound(err))
}

// interleavingTodoStore runs during before each update reaches the todos.
type interleavingTodoStore struct {
	*items.TodoStore
	during func(ctx context.Context)
}

func (s *interleavingTodoStore) Apply(ctx context.Context, operation models.Operation, itemID string, data map[string]any) (any, error) {
	if operation == models.OperationUpdate && s.during != nil {
		s.during(ctx)
	}

	return s.TodoStore.Apply(ctx, operation, itemID, data)
}

func TestChanges_DirectUpdateBlocksRequestCreation(t *testing.T) {
	ctx := context.Background()
	f := newChangesFixture(t)

	todo := &models.Todo{Title: "Renew certificate", Level: models.LevelLow}
	require.NoError(t, f.store.SaveTodo(ctx, todo))

	store := &interleavingTodoStore{TodoStore: f.todos}
	directory := users.NewDirectory(f.store)
	dispatcher := dispatch.New(map[models.ItemType]dispatch.DomainStore{
		models.ItemTypeTodo:    store,
		models.ItemTypeInvoice: items.NewInvoiceStore(f.store),
	})
	approval := NewApproval(f.store, rules.NewMatcher(rules.DefaultCatalog()), directory, dispatcher, notification.Nop{}, slog.Default())
	changes := NewChanges(approval, dispatcher, directory, slog.Default())

	createErr := make(chan error, 1)
	createdDuring := false

	store.during = func(context.Context) {
		go func() {
			_, err := approval.Create(context.Background(), CreateRequest{
				ItemType:    models.ItemTypeTodo,
				ItemID:      todo.ID,
				Operation:   models.OperationUpdate,
				Data:        map[string]any{"level": "HIGH"},
				RequesterID: f.manager.ID,
			})
			createErr <- err
		}()

		select {
		case err := <-createErr:
			createdDuring = true
			createErr <- err
		case <-time.After(100 * time.Millisecond):
		}
	}

	result, err := changes.Submit(ctx, Change{
		ItemType:  models.ItemTypeTodo,
		ItemID:    todo.ID,
		Operation: models.OperationUpdate,
		Data:      map[string]any{"completed": true},
		UserID:    f.user.ID,
	})
	require.NoError(t, err)
	assert.False(t, result.ApprovalRequired)
	assert.False(t, createdDuring, "request created while the direct update was running")

	select {
	case err := <-createErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("request creation did not finish after the update")
	}

	active, err := approval.HasActiveRequest(ctx, models.ItemTypeTodo, todo.ID)
	require.NoError(t, err)
	assert.True(t, active)

	updated, err := f.todos.Get(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
}

func TestChanges_SubmitFailures(t *testing.T) {
	ctx := context.Background()
	f := newChangesFixture(t)

	tests := []struct {
		name   string
		change Change
		check  func(error) bool
	}{
		{"unknown item type", Change{ItemType: "PROJECT", Operation: models.OperationCreate, UserID: f.user.ID}, IsValidation},
		{"bad operation", Change{ItemType: models.ItemTypeTodo, Operation: "MOVE", UserID: f.user.ID}, IsValidation},
		{"missing item id", Change{ItemType: models.ItemTypeTodo, Operation: models.OperationDelete, UserID: f.user.ID}, IsValidation},
		{"unknown user", Change{ItemType: models.ItemTypeTodo, Operation: models.OperationCreate, UserID: "ghost"}, IsNotFound},
		{"missing item", Change{ItemType: models.ItemTypeTodo, ItemID: "nope", Operation: models.OperationUpdate, UserID: f.user.ID}, IsNotFound},
		{"invalid data", Change{ItemType: models.ItemTypeTodo, Operation: models.OperationCreate, Data: map[string]any{"level": "LOW"}, UserID: f.user.ID}, IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.changes.Submit(ctx, tt.change)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}
}
