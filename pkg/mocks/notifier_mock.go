package mocks

import (
	"context"

	"github.com/dukex/approvals/pkg/events"
	"github.com/dukex/approvals/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of notification.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, kind events.EventType, request *models.ApprovalRequest, recipients []*models.User, extra map[string]any) {
	m.Called(ctx, kind, request, recipients, extra)
}
