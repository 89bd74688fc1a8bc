package services

import (
	"context"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Health struct {
	persistence HealthChecker
}

func NewHealth(persistence HealthChecker) *Health {
	return &Health{persistence: persistence}
}

// HealthCheck checks the health of the persistence layer.
func (h *Health) HealthCheck(ctx context.Context) (string, bool) {
	if h.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := h.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}
