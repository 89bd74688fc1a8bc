package mocks

import (
	"context"

	"github.com/dukex/approvals/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockDomainStore is a mock implementation of dispatch.DomainStore interface.
type MockDomainStore struct {
	mock.Mock
}

func (m *MockDomainStore) Apply(ctx context.Context, operation models.Operation, itemID string, data map[string]any) (any, error) {
	args := m.Called(ctx, operation, itemID, data)

	return args.Get(0), args.Error(1)
}

func (m *MockDomainStore) CurrentData(ctx context.Context, itemID string) (map[string]any, error) {
	args := m.Called(ctx, itemID)

	data, _ := args.Get(0).(map[string]any)

	return data, args.Error(1)
}
