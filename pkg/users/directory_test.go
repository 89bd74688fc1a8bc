package users

import (
	"context"
	"testing"

	"github.com/dukex/approvals/pkg/models"
	"github.com/dukex/approvals/pkg/persistence"
	"github.com/dukex/approvals/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Register(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(memory.NewPersistence())

	user, err := dir.Register(ctx, "maria", models.RoleManager)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	found, err := dir.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria", found.Username)

	_, err = dir.Register(ctx, "maria", models.RoleUser)
	assert.ErrorIs(t, err, persistence.ErrUsernameTaken)
}

func TestDirectory_RegisterValidation(t *testing.T) {
	dir := NewDirectory(memory.NewPersistence())

	_, err := dir.Register(context.Background(), "ab", models.RoleUser)
	require.ErrorIs(t, err, ErrInvalidUser)

	_, err = dir.Register(context.Background(), "alice", models.Role("OWNER"))
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestDirectory_FindByRoles(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(memory.NewPersistence())

	_, err := dir.Register(ctx, "admin", models.RoleAdmin)
	require.NoError(t, err)
	_, err = dir.Register(ctx, "manager", models.RoleManager)
	require.NoError(t, err)
	_, err = dir.Register(ctx, "worker", models.RoleUser)
	require.NoError(t, err)

	found, err := dir.FindByRoles(ctx, []models.Role{models.RoleManager, models.RoleAdmin, models.RoleManager})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "admin", found[0].Username)
	assert.Equal(t, "manager", found[1].Username)

	none, err := dir.FindByRoles(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = dir.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrUserNotFound)
}
