package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/approvals/pkg/channels/gochannel"
	"github.com/dukex/approvals/pkg/eventbus"
	"github.com/dukex/approvals/pkg/events"
	"github.com/dukex/approvals/pkg/locks"
	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/notification"
	"github.com/dukex/approvals/pkg/persistence/memory"
	"github.com/dukex/approvals/pkg/rules"
	"github.com/dukex/approvals/pkg/testutil"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *memory.Persistence) {
	t.Helper()

	store := memory.NewPersistence()

	api := NewAPI(
		slog.Default(),
		store,
		rules.DefaultCatalog(),
		notification.Nop{},
		locks.NewLocal(),
	)

	return api.App(), store
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Approvals API", string(body))
}

func TestAPI_HealthProbes(t *testing.T) {
	app, _ := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz"} {
		status, body := doRequest(t, app, http.MethodGet, path, nil)

		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "OK", string(body), path)
	}

	status, body := doRequest(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "healthy")
}

func TestAPI_GetRules(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, status)

	var ruleList []map[string]any
	require.NoError(t, json.Unmarshal(body, &ruleList))
	assert.Len(t, ruleList, len(rules.DefaultRules()))
}

func TestAPI_PublishesNotifications(t *testing.T) {
	ctx := context.Background()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub, slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	var (
		mu       sync.Mutex
		received []*events.Notification
	)

	require.NoError(t, bus.Handle(events.RequestedEvent, func(_ context.Context, event *events.Notification) error {
		mu.Lock()
		defer mu.Unlock()

		received = append(received, event)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	store := memory.NewPersistence()
	requester := testutil.CreateTestUser(models.RoleUser, testutil.WithUsername("ursula"))
	manager := testutil.CreateTestUser(models.RoleManager, testutil.WithUsername("marcos"))
	require.NoError(t, store.SaveUser(ctx, requester))
	require.NoError(t, store.SaveUser(ctx, manager))

	app := NewAPI(slog.Default(), store, rules.DefaultCatalog(), notification.NewEventNotifier(bus, slog.Default()), locks.NewLocal()).App()

	status, body := doRequest(t, app, http.MethodPost, "/api/approval-requests?requesterId="+requester.ID, map[string]any{
		"item_type": "TODO",
		"operation": "CREATE",
		"data":      map[string]any{"title": "Quarterly report", "level": "MEDIUM"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{manager.ID}, received[0].Recipients)
	assert.Equal(t, requester.ID, received[0].RequesterID)
}
