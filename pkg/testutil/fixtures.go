// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/approvals/pkg/models"
	"github.com/google/uuid"
)

// CreateTestUser creates a test User with default values that can be overridden.
func CreateTestUser(role models.Role, overrides ...func(*models.User)) *models.User {
	user := &models.User{
		ID:        uuid.New().String(),
		Username:  string(role) + "-" + uuid.New().String()[:8],
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	for _, override := range overrides {
		override(user)
	}

	return user
}

// WithUsername sets the username of a test user.
func WithUsername(username string) func(*models.User) {
	return func(u *models.User) {
		u.Username = username
	}
}

// CreateTestRequest creates a pending test ApprovalRequest targeting a todo.
func CreateTestRequest(requesterID string, overrides ...func(*models.ApprovalRequest)) *models.ApprovalRequest {
	now := time.Now().UTC().Truncate(time.Millisecond)

	request := &models.ApprovalRequest{
		ItemType:    models.ItemTypeTodo,
		ItemID:      uuid.New().String(),
		Operation:   models.OperationUpdate,
		Data:        map[string]any{"level": "HIGH", "title": "Ship release"},
		Status:      models.RequestStatusPending,
		RequesterID: requesterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(request)
	}

	return request
}

// WithItem targets the request at the given item.
func WithItem(itemType models.ItemType, itemID string) func(*models.ApprovalRequest) {
	return func(r *models.ApprovalRequest) {
		r.ItemType = itemType
		r.ItemID = itemID
	}
}

// WithOperation sets the operation and clears the item for CREATE.
func WithOperation(operation models.Operation) func(*models.ApprovalRequest) {
	return func(r *models.ApprovalRequest) {
		r.Operation = operation
		if operation == models.OperationCreate {
			r.ItemID = ""
		}
	}
}

// WithCreatedAt sets both timestamps of the request.
func WithCreatedAt(at time.Time) func(*models.ApprovalRequest) {
	return func(r *models.ApprovalRequest) {
		r.CreatedAt = at
		r.UpdatedAt = at
	}
}

// WithData replaces the proposed data.
func WithData(data map[string]any) func(*models.ApprovalRequest) {
	return func(r *models.ApprovalRequest) {
		r.Data = data
	}
}
