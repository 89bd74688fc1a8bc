package main

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/approvals/pkg/events"
	"github.com/dukex/approvals/pkg/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingReminder struct {
	calls atomic.Int32
}

func (r *countingReminder) Remind(context.Context, time.Time) (int, error) {
	r.calls.Add(1)

	return 0, nil
}

func TestNewNotifier_InvalidSchedule(t *testing.T) {
	_, err := NewNotifier(&mocks.MockEventBus{}, &countingReminder{}, "whenever", time.Hour, slog.Default())

	assert.Error(t, err)
}

func TestNotifier_StartRegistersSinkAndSchedule(t *testing.T) {
	ctx := context.Background()

	bus := &mocks.MockEventBus{}
	for _, eventType := range events.NotificationTypes {
		bus.On("Handle", eventType, mock.Anything).Return(nil).Once()
	}

	bus.On("Subscribe", mock.Anything).Return(nil).Once()

	reminders := &countingReminder{}

	notifier, err := NewNotifier(bus, reminders, "@every 1s", time.Hour, slog.Default())
	require.NoError(t, err)

	require.NoError(t, notifier.Start(ctx))

	assert.Eventually(t, func() bool { return reminders.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	notifier.Stop(ctx)
	bus.AssertExpectations(t)
}
