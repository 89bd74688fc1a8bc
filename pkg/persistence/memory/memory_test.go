package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/dukex/approvals/pkg/persistence/memory"
	"github.com/dukex/approvals/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence(t *testing.T) {
	t.Parallel()

	testutil.RunPersistenceSuite(t, func(*testing.T) persistence.Persistence {
		return memory.NewPersistence()
	})
}

func TestPersistence_ConcurrentCreateForSameItem(t *testing.T) {
	t.Parallel()

	p := memory.NewPersistence()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			request := testutil.CreateTestRequest("requester", testutil.WithItem(models.ItemTypeTodo, "todo-1"))
			if p.CreateRequest(ctx, request) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestPersistence_ReturnsCopies(t *testing.T) {
	t.Parallel()

	p := memory.NewPersistence()
	ctx := context.Background()

	request := testutil.CreateTestRequest("requester")
	require.NoError(t, p.CreateRequest(ctx, request))

	request.Data["level"] = "LOW"
	request.Status = models.RequestStatusApproved

	loaded, err := p.RequestByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "HIGH", loaded.Data["level"])
	assert.Equal(t, models.RequestStatusPending, loaded.Status)

	loaded.Data["level"] = "MEDIUM"

	again, err := p.RequestByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "HIGH", again.Data["level"])
}
