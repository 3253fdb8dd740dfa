package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/assetvuln/internal/adapters/seed"
	"github.com/lcalzada-xor/assetvuln/internal/config"
	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

func newNVDServer(t *testing.T) *httptest.Server {
	t.Helper()
	fixture, err := os.ReadFile("../adapters/nvd/testdata/windows_server_2019.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Query().Get("cpeName"), "windows_server_2019") {
			w.Write(fixture)
			return
		}
		w.Write([]byte(`{"resultsPerPage":0,"startIndex":0,"totalResults":0,"vulnerabilities":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, nvdURL string) *Application {
	t.Helper()
	cfg := &config.Config{
		Addr:                "127.0.0.1:0",
		DBPath:              filepath.Join(t.TempDir(), "data", "assetvuln.db"),
		NVDURL:              nvdURL,
		RetryAttempts:       1,
		RequestTimeout:      5 * time.Second,
		RequestInterval:     time.Millisecond,
		BatchSize:           10,
		SimilarityThreshold: 0.4,
		Concurrency:         2,
		ScheduleInterval:    time.Hour,
		NotificationTTL:     24 * time.Hour,
		LogFormat:           "text",
	}

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func seedFiles() seed.Files {
	return seed.Files{
		Platforms: "../adapters/seed/testdata/platforms.json",
		Criteria:  "../adapters/seed/testdata/criteria.json",
		Assets:    "../adapters/seed/testdata/assets.json",
	}
}

func TestApplication_ReconcileEndToEnd(t *testing.T) {
	nvd := newNVDServer(t)
	a := newTestApp(t, nvd.URL)
	ctx := context.Background()

	require.NoError(t, a.Seed(ctx, seedFiles()))

	a.Reconciler.ReconcileAll(ctx)

	page, err := a.Store.ListVulnerabilities(ctx, domain.VulnerabilityFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalCount)
	for _, v := range page.Items {
		assert.Equal(t, "srv-dc-01", v.DeviceName)
	}

	notes, err := a.Store.ListNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	// A second run finds nothing new.
	a.Reconciler.ReconcileAll(ctx)
	notes, err = a.Store.ListNotifications(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	statuses, err := a.Store.AssetsWithStatus(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
}

func TestApplication_ReconcileUnknownDevice(t *testing.T) {
	nvd := newNVDServer(t)
	a := newTestApp(t, nvd.URL)
	ctx := context.Background()
	require.NoError(t, a.Seed(ctx, seedFiles()))

	err := a.Reconciler.ReconcileDevice(ctx, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)

	require.NoError(t, a.Reconciler.ReconcileDevice(ctx, "web-01"))
	page, err := a.Store.ListVulnerabilities(ctx, domain.VulnerabilityFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestApplication_WriteReport(t *testing.T) {
	nvd := newNVDServer(t)
	a := newTestApp(t, nvd.URL)
	ctx := context.Background()
	require.NoError(t, a.Seed(ctx, seedFiles()))
	a.Reconciler.ReconcileAll(ctx)

	var buf bytes.Buffer
	require.NoError(t, a.WriteReport(ctx, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestApplication_Purge(t *testing.T) {
	nvd := newNVDServer(t)
	a := newTestApp(t, nvd.URL)
	ctx := context.Background()
	require.NoError(t, a.Seed(ctx, seedFiles()))
	a.Reconciler.ReconcileAll(ctx)

	// Fresh notifications are within the retention period.
	n, err := a.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
