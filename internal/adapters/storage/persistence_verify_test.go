package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// TestDedupSurvivesReopen verifies that uniqueness holds across process
// restarts, not only within one connection.
func TestDedupSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetvuln.db")
	ctx := context.Background()

	store, err := NewSQLiteAdapter(path)
	require.NoError(t, err)

	av := domain.AssetVulnerability{AssetID: "a1", CVEID: "CVE-2019-0708", RiskLevel: domain.RiskCritical}
	created, err := store.UpsertAssetVulnerability(ctx, av)
	require.NoError(t, err)
	require.True(t, created)

	event := domain.NotificationEvent{ID: "n1", Message: domain.NewCVEMessage("srv-01", "CVE-2019-0708"), CreatedAt: time.Now()}
	created, err = store.PersistIfNew(ctx, event)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteAdapter(path)
	require.NoError(t, err)
	defer reopened.Close()

	created, err = reopened.UpsertAssetVulnerability(ctx, av)
	require.NoError(t, err)
	assert.False(t, created)

	event.ID = "n2"
	created, err = reopened.PersistIfNew(ctx, event)
	require.NoError(t, err)
	assert.False(t, created)

	exists, err := reopened.ExistsAssetVulnerability(ctx, "a1", "CVE-2019-0708")
	require.NoError(t, err)
	assert.True(t, exists)
}
