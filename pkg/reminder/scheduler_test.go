package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReminder struct {
	mu      sync.Mutex
	befores []time.Time
	err     error
}

func (r *recordingReminder) Remind(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.befores = append(r.befores, before)

	return len(r.befores), r.err
}

func (r *recordingReminder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.befores)
}

func TestNewScheduler_Validation(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		after    time.Duration
		wantErr  bool
	}{
		{"standard cron", "0 * * * *", time.Hour, false},
		{"descriptor", "@every 1h", 24 * time.Hour, false},
		{"empty schedule", "", time.Hour, true},
		{"bad expression", "every hour", time.Hour, true},
		{"non positive threshold", "@hourly", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheduler(tt.schedule, tt.after, &recordingReminder{}, slog.Default())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_RunUsesThreshold(t *testing.T) {
	reminder := &recordingReminder{}
	s, err := NewScheduler("@hourly", 24*time.Hour, reminder, slog.Default())
	require.NoError(t, err)

	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Run(context.Background())

	require.Equal(t, 1, reminder.calls())
	assert.Equal(t, now.Add(-24*time.Hour), reminder.befores[0])
}

func TestScheduler_RunSurvivesFailures(t *testing.T) {
	reminder := &recordingReminder{err: errors.New("database unavailable")}
	s, err := NewScheduler("@hourly", time.Hour, reminder, slog.Default())
	require.NoError(t, err)

	require.NotPanics(t, func() { s.Run(context.Background()) })
	require.NotPanics(t, func() { s.Run(context.Background()) })
	assert.Equal(t, 2, reminder.calls())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	assert.Equal(t, 2, reminder.calls())
}

func TestScheduler_StartStop(t *testing.T) {
	reminder := &recordingReminder{}
	s, err := NewScheduler("@every 1s", time.Hour, reminder, slog.Default())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return reminder.calls() > 0 }, 3*time.Second, 50*time.Millisecond)

	s.Stop(context.Background())
}
