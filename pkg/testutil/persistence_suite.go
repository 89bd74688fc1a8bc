package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPersistenceSuite exercises the behaviour every persistence implementation
// must share. newPersistence must return an empty store.
func RunPersistenceSuite(t *testing.T, newPersistence func(t *testing.T) persistence.Persistence) {
	t.Helper()

	t.Run("one active request per item", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		requester := saveUser(ctx, t, p, models.RoleUser)

		first := CreateTestRequest(requester.ID)
		require.NoError(t, p.CreateRequest(ctx, first))
		assert.NotEmpty(t, first.ID)

		second := CreateTestRequest(requester.ID, WithItem(first.ItemType, first.ItemID))
		err := p.CreateRequest(ctx, second)
		require.Error(t, err)
		assert.True(t, persistence.IsActiveRequestExists(err))

		other := CreateTestRequest(requester.ID, WithItem(models.ItemTypeInvoice, first.ItemID))
		require.NoError(t, p.CreateRequest(ctx, other))

		first.Status = models.RequestStatusWithdrawn
		first.UpdatedAt = first.UpdatedAt.Add(time.Second)
		require.NoError(t, p.SaveRequest(ctx, first))

		third := CreateTestRequest(requester.ID, WithItem(first.ItemType, first.ItemID))
		require.NoError(t, p.CreateRequest(ctx, third))
	})

	t.Run("create requests are never in conflict", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		requester := saveUser(ctx, t, p, models.RoleUser)

		for range 3 {
			request := CreateTestRequest(requester.ID, WithOperation(models.OperationCreate))
			require.NoError(t, p.CreateRequest(ctx, request))
		}

		active, err := p.ActiveRequests(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 3)
	})

	t.Run("request round trip", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		requester := saveUser(ctx, t, p, models.RoleUser)

		request := CreateTestRequest(requester.ID, WithData(map[string]any{"level": "HIGH", "completed": true}))
		require.NoError(t, p.CreateRequest(ctx, request))

		request.Status = models.RequestStatusRejected
		request.StatusReason = "Failed to execute change: boom"
		request.UpdatedAt = request.UpdatedAt.Add(time.Minute)
		require.NoError(t, p.SaveRequest(ctx, request))

		loaded, err := p.RequestByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, request.ItemType, loaded.ItemType)
		assert.Equal(t, request.ItemID, loaded.ItemID)
		assert.Equal(t, request.Operation, loaded.Operation)
		assert.Equal(t, models.RequestStatusRejected, loaded.Status)
		assert.Equal(t, "Failed to execute change: boom", loaded.StatusReason)
		assert.Equal(t, "HIGH", loaded.Data["level"])
		assert.Equal(t, true, loaded.Data["completed"])
		assert.WithinDuration(t, request.UpdatedAt, loaded.UpdatedAt, time.Millisecond)

		_, err = p.RequestByID(ctx, "missing")
		assert.True(t, persistence.IsRequestNotFound(err))

		err = p.SaveRequest(ctx, CreateTestRequest(requester.ID, func(r *models.ApprovalRequest) { r.ID = "missing" }))
		assert.True(t, persistence.IsRequestNotFound(err))
	})

	t.Run("conditional status transition", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		requester := saveUser(ctx, t, p, models.RoleUser)

		request := CreateTestRequest(requester.ID)
		require.NoError(t, p.CreateRequest(ctx, request))

		claimed := request.Clone()
		claimed.Status = models.RequestStatusApproved
		claimed.UpdatedAt = request.UpdatedAt.Add(time.Minute)
		require.NoError(t, p.TransitionRequest(ctx, claimed, models.RequestStatusPending))

		again := request.Clone()
		again.Status = models.RequestStatusApproved
		err := p.TransitionRequest(ctx, again, models.RequestStatusPending)
		assert.True(t, persistence.IsRequestStatusChanged(err))
		assert.False(t, persistence.IsRequestNotFound(err))

		rolledBack := claimed.Clone()
		rolledBack.Status = models.RequestStatusRejected
		rolledBack.StatusReason = "Failed to execute change: boom"
		require.NoError(t, p.TransitionRequest(ctx, rolledBack, models.RequestStatusApproved))

		loaded, err := p.RequestByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusRejected, loaded.Status)
		assert.Equal(t, "Failed to execute change: boom", loaded.StatusReason)

		missing := CreateTestRequest(requester.ID, func(r *models.ApprovalRequest) { r.ID = "missing" })
		err = p.TransitionRequest(ctx, missing, models.RequestStatusPending)
		assert.True(t, persistence.IsRequestNotFound(err))
	})

	t.Run("requests by requester newest first", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		alice := saveUser(ctx, t, p, models.RoleUser)
		bob := saveUser(ctx, t, p, models.RoleUser)

		base := time.Now().UTC().Truncate(time.Millisecond)
		older := CreateTestRequest(alice.ID, WithCreatedAt(base.Add(-time.Hour)))
		newer := CreateTestRequest(alice.ID, WithCreatedAt(base))
		foreign := CreateTestRequest(bob.ID)

		require.NoError(t, p.CreateRequest(ctx, older))
		require.NoError(t, p.CreateRequest(ctx, newer))
		require.NoError(t, p.CreateRequest(ctx, foreign))

		listed, err := p.RequestsByRequester(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, newer.ID, listed[0].ID)
		assert.Equal(t, older.ID, listed[1].ID)

		active, err := p.ActiveRequests(ctx)
		require.NoError(t, err)
		require.Len(t, active, 3)
		assert.Equal(t, older.ID, active[0].ID)
	})

	t.Run("one decision per approver", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		requester := saveUser(ctx, t, p, models.RoleUser)
		manager := saveUser(ctx, t, p, models.RoleManager)
		admin := saveUser(ctx, t, p, models.RoleAdmin)

		request := CreateTestRequest(requester.ID)
		require.NoError(t, p.CreateRequest(ctx, request))

		now := time.Now().UTC().Truncate(time.Millisecond)
		first := &models.ApprovalDecision{RequestID: request.ID, ApproverID: manager.ID, ApproverRole: models.RoleManager, Approved: true, Comment: "ok", CreatedAt: now}
		require.NoError(t, p.SaveDecision(ctx, first))
		assert.NotEmpty(t, first.ID)

		again := &models.ApprovalDecision{RequestID: request.ID, ApproverID: manager.ID, ApproverRole: models.RoleManager, Approved: false, CreatedAt: now.Add(time.Second)}
		err := p.SaveDecision(ctx, again)
		require.Error(t, err)
		assert.True(t, persistence.IsDecisionExists(err))

		second := &models.ApprovalDecision{RequestID: request.ID, ApproverID: admin.ID, ApproverRole: models.RoleAdmin, Approved: false, Comment: "no", CreatedAt: now.Add(2 * time.Second)}
		require.NoError(t, p.SaveDecision(ctx, second))

		decisions, err := p.DecisionsByRequest(ctx, request.ID)
		require.NoError(t, err)
		require.Len(t, decisions, 2)
		assert.Equal(t, manager.ID, decisions[0].ApproverID)
		assert.True(t, decisions[0].Approved)
		assert.Equal(t, "ok", decisions[0].Comment)
		assert.Equal(t, admin.ID, decisions[1].ApproverID)
		assert.Equal(t, models.RoleAdmin, decisions[1].ApproverRole)
		assert.False(t, decisions[1].Approved)

		none, err := p.DecisionsByRequest(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("users", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()

		admin := saveUser(ctx, t, p, models.RoleAdmin, WithUsername("carol"))
		manager := saveUser(ctx, t, p, models.RoleManager, WithUsername("bob"))
		saveUser(ctx, t, p, models.RoleUser, WithUsername("alice"))

		duplicate := CreateTestUser(models.RoleUser, WithUsername("bob"))
		err := p.SaveUser(ctx, duplicate)
		require.Error(t, err)
		assert.ErrorIs(t, err, persistence.ErrUsernameTaken)

		loaded, err := p.UserByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "carol", loaded.Username)
		assert.Equal(t, models.RoleAdmin, loaded.Role)

		_, err = p.UserByID(ctx, "missing")
		assert.True(t, persistence.IsUserNotFound(err))

		all, err := p.Users(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "alice", all[0].Username)

		approvers, err := p.UsersByRoles(ctx, []models.Role{models.RoleAdmin, models.RoleManager})
		require.NoError(t, err)
		require.Len(t, approvers, 2)
		assert.Equal(t, manager.ID, approvers[0].ID)
		assert.Equal(t, admin.ID, approvers[1].ID)

		nobody, err := p.UsersByRoles(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, nobody)
	})

	t.Run("todos", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)

		todo := &models.Todo{Title: "Write report", Level: models.LevelHigh, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, p.SaveTodo(ctx, todo))
		require.NotEmpty(t, todo.ID)

		todo.Completed = true
		todo.Description = "quarterly"
		require.NoError(t, p.SaveTodo(ctx, todo))

		loaded, err := p.TodoByID(ctx, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, "Write report", loaded.Title)
		assert.Equal(t, "quarterly", loaded.Description)
		assert.True(t, loaded.Completed)
		assert.Equal(t, models.LevelHigh, loaded.Level)

		all, err := p.Todos(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		require.NoError(t, p.DeleteTodo(ctx, todo.ID))
		_, err = p.TodoByID(ctx, todo.ID)
		assert.True(t, persistence.IsItemNotFound(err))
		assert.True(t, persistence.IsItemNotFound(p.DeleteTodo(ctx, todo.ID)))
	})

	t.Run("invoices", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Millisecond)

		invoice := &models.Invoice{Amount: "1500.00", Status: models.InvoiceStatusCreated, Level: models.LevelMedium, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, p.SaveInvoice(ctx, invoice))
		require.NotEmpty(t, invoice.ID)

		invoice.Status = models.InvoiceStatusPaid
		require.NoError(t, p.SaveInvoice(ctx, invoice))

		loaded, err := p.InvoiceByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "1500.00", loaded.Amount)
		assert.Equal(t, models.InvoiceStatusPaid, loaded.Status)

		all, err := p.Invoices(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		require.NoError(t, p.DeleteInvoice(ctx, invoice.ID))
		_, err = p.InvoiceByID(ctx, invoice.ID)
		assert.True(t, persistence.IsItemNotFound(err))
	})
}

func saveUser(ctx context.Context, t *testing.T, p persistence.Persistence, role models.Role, overrides ...func(*models.User)) *models.User {
	t.Helper()

	user := CreateTestUser(role, overrides...)
	require.NoError(t, p.SaveUser(ctx, user))

	return user
}
