package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicehub/models"
)

func TestMemoryRoleCacheExpires(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewExpiringMemoryRoleCache(clk, time.Hour)

	require.NoError(t, c.SetUserID(ctx, "sid-1", "u1"))
	require.NoError(t, c.SetRole(ctx, "sid-1", models.RoleWorker))

	clk.Advance(59 * time.Minute)
	cached, err := c.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, Cached{Role: models.RoleWorker, UserID: "u1"}, cached)

	// A write refreshes the expiry of the whole entry.
	require.NoError(t, c.SetRole(ctx, "sid-1", models.RoleCustomer))
	clk.Advance(59 * time.Minute)
	cached, _ = c.Load(ctx, "sid-1")
	assert.Equal(t, Cached{Role: models.RoleCustomer, UserID: "u1"}, cached)

	clk.Advance(time.Minute)
	cached, _ = c.Load(ctx, "sid-1")
	assert.Equal(t, Cached{}, cached)
}

func TestMemoryRoleCachePrunesAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewExpiringMemoryRoleCache(clk, time.Hour)

	for i := range 50 {
		require.NoError(t, c.SetRole(ctx, fmt.Sprintf("old-%d", i), models.RoleCustomer))
	}
	assert.Equal(t, 50, c.Len())

	clk.Advance(2 * time.Hour)
	require.NoError(t, c.SetRole(ctx, "fresh", models.RoleWorker))

	assert.Equal(t, 1, c.Len())
	cached, _ := c.Load(ctx, "fresh")
	assert.Equal(t, models.RoleWorker, cached.Role)
}

func TestMemoryRoleCacheWithoutTTLKeepsEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRoleCache()
	require.NoError(t, c.SetUserID(ctx, "sid-1", "u1"))
	require.NoError(t, c.Clear(ctx, "sid-1"))
	require.NoError(t, c.SetUserID(ctx, "sid-2", "u2"))

	assert.Equal(t, 1, c.Len())
	cached, _ := c.Load(ctx, "sid-2")
	assert.Equal(t, "u2", cached.UserID)
}
