package nvd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

const testCPE = "cpe:2.3:o:microsoft:windows_server_2019:-:*:*:*:*:*:*:*"

func newTestClient(url string, mutate ...func(*Config)) *Client {
	cfg := Config{
		BaseURL: url,
		Retry:   RetryPolicy{MaxAttempts: 3, Delay: 0, Retryable: RetryOnUnavailable},
		Timeout: time.Second,
		Limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewClient(cfg)
}

func TestFetchByCriterion_DecodesRecords(t *testing.T) {
	payload, err := os.ReadFile("testdata/windows_server_2019.json")
	require.NoError(t, err)

	var gotCPE, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCPE = r.URL.Query().Get("cpeName")
		gotKey = r.Header.Get("apiKey")
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, func(c *Config) { c.APIKey = "secret" })
	records, err := client.FetchByCriterion(context.Background(), testCPE)
	require.NoError(t, err)

	assert.Equal(t, testCPE, gotCPE)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, "CVE-2021-34527", rec.ID)
	assert.Equal(t, "Analyzed", rec.VulnStatus)
	assert.Equal(t, "Windows Print Spooler Remote Code Execution Vulnerability", rec.EnglishDescription())
	require.Len(t, rec.Metrics.CvssMetricV31, 1)
	assert.Equal(t, 8.8, rec.Metrics.CvssMetricV31[0].CvssData.BaseScore)
	assert.Equal(t, []string{"CWE-269"}, rec.CWEs())
	assert.Equal(t, []domain.ConfigurationMatch{{
		Criteria:        testCPE,
		MatchCriteriaID: "0B7E4C2B-5C8B-4B6E-9C6F-0E7C1C7F0D11",
	}}, rec.ConfigurationMatches())

	published, ok := domain.ParseNVDTime(rec.Published)
	require.True(t, ok)
	assert.Equal(t, 2021, published.Year())

	assert.Equal(t, "CVE-2024-99999", records[1].ID)
	assert.Empty(t, records[1].Metrics.CvssMetricV31)
}

func TestFetchByCriterion_PermanentUnavailableStopsAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchByCriterion(context.Background(), testCPE)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchByCriterion_RecoversAfterUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"vulnerabilities":[{"cve":{"id":"CVE-2019-0708"}}]}`))
	}))
	defer srv.Close()

	records, err := newTestClient(srv.URL).FetchByCriterion(context.Background(), testCPE)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CVE-2019-0708", records[0].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchByCriterion_OtherStatusNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		_, err := newTestClient(srv.URL).FetchByCriterion(context.Background(), testCPE)
		assert.ErrorIs(t, err, domain.ErrSourceUnavailable, "status %d", status)
		assert.Equal(t, int32(1), calls.Load(), "status %d", status)
		srv.Close()
	}
}

func TestFetchByCriterion_AttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := newTestClient(srv.URL, func(c *Config) { c.Timeout = 50 * time.Millisecond })

	start := time.Now()
	_, err := client.FetchByCriterion(context.Background(), testCPE)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchByCriterion_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vulnerabilities": [`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchByCriterion(context.Background(), testCPE)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchByCriterion_CancelledDuringRetryDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, func(c *Config) { c.Retry.Delay = time.Minute })
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.FetchByCriterion(ctx, testCPE)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.True(t, p.shouldRetry(http.StatusServiceUnavailable, 1))
	assert.True(t, p.shouldRetry(http.StatusServiceUnavailable, 2))
	assert.False(t, p.shouldRetry(http.StatusServiceUnavailable, 3))
	assert.False(t, p.shouldRetry(http.StatusTooManyRequests, 1))
	assert.False(t, p.shouldRetry(0, 1))
}
